package model

import "time"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Conversation is a chat thread belonging to an agent.
type Conversation struct {
	ConversationID string    `gorm:"column:conversation_id;primaryKey"`
	AgentID        string    `gorm:"column:agent_id;not null;index"`
	Title          string    `gorm:"column:title"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message is a single turn in a conversation. ToolCalls holds the raw
// tool-call payload for assistant messages; ToolCallID links a tool result
// back to the call that produced it.
type Message struct {
	MessageID      string    `gorm:"column:message_id;primaryKey"`
	ConversationID string    `gorm:"column:conversation_id;not null;index"`
	Role           string    `gorm:"column:role;not null"`
	Content        string    `gorm:"column:content"`
	ToolCalls      JSONMap   `gorm:"column:tool_calls;type:jsonb"`
	ToolCallID     string    `gorm:"column:tool_call_id"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}
