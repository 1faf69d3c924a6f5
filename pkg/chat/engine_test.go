package chat

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/llm"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

type memConversations struct {
	messages []model.Message
	saveErr  error
}

func (m *memConversations) CreateConversation(agentID, title string) (*model.Conversation, error) {
	return &model.Conversation{ConversationID: "conv-1", AgentID: agentID, Title: title}, nil
}

func (m *memConversations) FindConversation(id, agentID string) (*model.Conversation, error) {
	return &model.Conversation{ConversationID: id, AgentID: agentID}, nil
}

func (m *memConversations) ListConversations(agentID string) ([]model.Conversation, error) {
	return nil, nil
}

func (m *memConversations) DeleteConversation(id string) error { return nil }

func (m *memConversations) SaveMessage(msg model.Message) (*model.Message, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memConversations) ListMessages(conversationID string) ([]model.Message, error) {
	out := make([]model.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memSimulations struct {
	saved []model.Simulation
}

func (m *memSimulations) SaveSimulation(s model.Simulation) (*model.Simulation, error) {
	m.saved = append(m.saved, s)
	return &s, nil
}

func (m *memSimulations) ListSimulations(userID string, limit, offset int) ([]model.Simulation, int64, error) {
	return m.saved, int64(len(m.saved)), nil
}

func (m *memSimulations) FindSimulation(id, userID string) (*model.Simulation, error) {
	return nil, nil
}

// scriptedCompleter returns canned completions in order, echoing content
// through onDelta one rune at a time.
type scriptedCompleter struct {
	completions []*llm.Completion
	errs        []error
	calls       int
	requests    []llm.Request
}

func (s *scriptedCompleter) Stream(ctx context.Context, req llm.Request, onDelta func(string)) (*llm.Completion, error) {
	s.requests = append(s.requests, req)
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	c := s.completions[i]
	if onDelta != nil && c.Content != "" {
		for _, r := range c.Content {
			onDelta(string(r))
		}
	}
	return c, nil
}

func toolCall(id, name, args string) llm.ToolCall {
	var call llm.ToolCall
	call.ID = id
	call.Type = "function"
	call.Function.Name = name
	call.Function.Arguments = args
	return call
}

func collectEvents() (*[]Event, Sink) {
	events := &[]Event{}
	return events, func(e Event) { *events = append(*events, e) }
}

func testAgent() model.Agent {
	return model.Agent{
		AgentID:      "agent-1",
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a helpful assistant.",
		Temperature:  0.7,
	}
}

func eventTypes(events []Event) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestRunPlainCompletion(t *testing.T) {
	conversations := &memConversations{}
	simulations := &memSimulations{}
	engine := NewEngine(conversations, simulations, tools.NewRegistry(), nil, 5)

	completer := &scriptedCompleter{completions: []*llm.Completion{
		{Content: "Hi!", FinishReason: "stop"},
	}}

	events, sink := collectEvents()
	err := engine.Run(context.Background(), completer, Turn{
		Agent:          testAgent(),
		ConversationID: "conv-1",
		Input:          "hello",
	}, sink)
	require.NoError(t, err)

	types := eventTypes(*events)
	assert.Equal(t, []string{"token", "token", "token", "done"}, types)

	// user + assistant persisted
	require.Len(t, conversations.messages, 2)
	assert.Equal(t, model.RoleUser, conversations.messages[0].Role)
	assert.Equal(t, model.RoleAssistant, conversations.messages[1].Role)
	assert.Equal(t, "Hi!", conversations.messages[1].Content)

	// system prompt went first on the wire
	require.NotEmpty(t, completer.requests)
	assert.Equal(t, model.RoleSystem, completer.requests[0].Messages[0].Role)

	require.Len(t, simulations.saved, 1)
	assert.Equal(t, "completed", simulations.saved[0].Status)
	assert.Zero(t, simulations.saved[0].ToolInvocations)
}

func TestRunToolRound(t *testing.T) {
	conversations := &memConversations{}
	simulations := &memSimulations{}

	registry := tools.NewRegistry()
	registry.Register(&tools.Tool{
		Name: "echo",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{"echo": args["text"]}, nil
		},
	})
	engine := NewEngine(conversations, simulations, registry, nil, 5)

	completer := &scriptedCompleter{completions: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "echo", `{"text":"hi"}`)}, FinishReason: "tool_calls"},
		{Content: "Echoed.", FinishReason: "stop"},
	}}

	events, sink := collectEvents()
	err := engine.Run(context.Background(), completer, Turn{
		Agent:          testAgent(),
		ConversationID: "conv-1",
		Input:          "echo hi",
	}, sink)
	require.NoError(t, err)

	types := eventTypes(*events)
	assert.Contains(t, types, EventToolCall)
	assert.Contains(t, types, EventToolResult)
	assert.Equal(t, EventDone, types[len(types)-1])

	// user, assistant(tool_calls), tool, assistant(final)
	require.Len(t, conversations.messages, 4)
	assert.Equal(t, model.RoleTool, conversations.messages[2].Role)
	assert.Equal(t, "call_1", conversations.messages[2].ToolCallID)

	require.Len(t, simulations.saved, 1)
	assert.Equal(t, 1, simulations.saved[0].ToolInvocations)

	// second round saw the tool result in history
	require.Len(t, completer.requests, 2)
	last := completer.requests[1].Messages[len(completer.requests[1].Messages)-1]
	assert.Equal(t, model.RoleTool, last.Role)
}

func TestRunUnknownToolReported(t *testing.T) {
	conversations := &memConversations{}
	engine := NewEngine(conversations, nil, tools.NewRegistry(), nil, 5)

	completer := &scriptedCompleter{completions: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "missing", `{}`)}, FinishReason: "tool_calls"},
		{Content: "Sorry.", FinishReason: "stop"},
	}}

	events, sink := collectEvents()
	err := engine.Run(context.Background(), completer, Turn{
		Agent:          testAgent(),
		ConversationID: "conv-1",
		Input:          "x",
	}, sink)
	require.NoError(t, err)

	var sawError bool
	for _, e := range *events {
		if e.Type == EventToolResult {
			data := e.Data.(ToolResultData)
			assert.Contains(t, data.Error, "unknown tool")
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestRunBoundedToolRounds(t *testing.T) {
	conversations := &memConversations{}
	registry := tools.NewRegistry()
	registry.Register(&tools.Tool{
		Name: "loop",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return "again", nil
		},
	})
	engine := NewEngine(conversations, nil, registry, nil, 2)

	// The model keeps asking for tools forever.
	completer := &scriptedCompleter{completions: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{toolCall("c1", "loop", `{}`)}},
		{ToolCalls: []llm.ToolCall{toolCall("c2", "loop", `{}`)}},
		{ToolCalls: []llm.ToolCall{toolCall("c3", "loop", `{}`)}},
	}}

	events, sink := collectEvents()
	err := engine.Run(context.Background(), completer, Turn{
		Agent:          testAgent(),
		ConversationID: "conv-1",
		Input:          "x",
	}, sink)
	require.NoError(t, err)

	assert.Equal(t, 2, completer.calls, "rounds are bounded")
	last := (*events)[len(*events)-1]
	require.Equal(t, EventDone, last.Type)
	assert.Equal(t, 2, last.Data.(DoneData).Rounds)
}

func TestRunLLMFailure(t *testing.T) {
	conversations := &memConversations{}
	simulations := &memSimulations{}
	engine := NewEngine(conversations, simulations, tools.NewRegistry(), nil, 5)

	completer := &scriptedCompleter{
		completions: []*llm.Completion{nil},
		errs:        []error{errors.New("model unavailable")},
	}

	events, sink := collectEvents()
	err := engine.Run(context.Background(), completer, Turn{
		Agent:          testAgent(),
		ConversationID: "conv-1",
		Input:          "x",
	}, sink)
	require.NoError(t, err, "stream-phase failures surface as events")

	types := eventTypes(*events)
	assert.Contains(t, types, EventError)
	require.Len(t, simulations.saved, 1)
	assert.Equal(t, "failed", simulations.saved[0].Status)
}

func TestRunToolRoundAuditsExecution(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(&tools.Tool{
		Name: "echo",
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return "ok", nil
		},
	})
	engine := NewEngine(&memConversations{}, nil, registry, nil, 5)

	var buf bytes.Buffer
	logger := audit.NewLogger()
	logger.SetWriter(&buf)
	engine.SetAudit(logger)

	completer := &scriptedCompleter{completions: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "echo", `{}`)}, FinishReason: "tool_calls"},
		{Content: "done", FinishReason: "stop"},
	}}

	_, sink := collectEvents()
	agent := testAgent()
	agent.UserID = "user-1"
	err := engine.Run(context.Background(), completer, Turn{
		Agent:          agent,
		ConversationID: "conv-1",
		Input:          "echo",
	}, sink)
	require.NoError(t, err)

	record := buf.String()
	assert.Contains(t, record, "execute")
	assert.Contains(t, record, "builtin/echo")
	assert.Contains(t, record, "user-1")
}
