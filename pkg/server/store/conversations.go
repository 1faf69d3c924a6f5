package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrConversationNotFound is returned when a conversation doesn't exist
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationsStore abstracts conversation and message operations.
// Conversation state lives here rather than in process memory so chat
// survives restarts and scales past one server.
type ConversationsStore interface {
	// CreateConversation starts a conversation under an agent.
	CreateConversation(agentID, title string) (*model.Conversation, error)

	// FindConversation retrieves a conversation by id scoped to an agent.
	// Returns ErrConversationNotFound if it doesn't exist.
	FindConversation(id, agentID string) (*model.Conversation, error)

	// ListConversations lists an agent's conversations, newest first.
	ListConversations(agentID string) ([]model.Conversation, error)

	// DeleteConversation removes a conversation and its messages.
	DeleteConversation(id string) error

	// SaveMessage appends a message and bumps the conversation's updated_at.
	SaveMessage(m model.Message) (*model.Message, error)

	// ListMessages returns a conversation's messages in creation order.
	ListMessages(conversationID string) ([]model.Message, error)
}
