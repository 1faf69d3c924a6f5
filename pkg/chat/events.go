package chat

// Event types emitted during a turn.
const (
	EventToken      = "token"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventError      = "error"
	EventDone       = "done"
)

// Event is one server-sent event of a running turn.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ToolCallData describes a model-requested tool invocation.
type ToolCallData struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// ToolResultData carries a tool's output or error back to the stream.
type ToolResultData struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// DoneData summarizes a finished turn.
type DoneData struct {
	ConversationID  string `json:"conversationId"`
	ToolInvocations int    `json:"toolInvocations"`
	Rounds          int    `json:"rounds"`
}

// Sink receives events as the turn progresses.
type Sink func(Event)
