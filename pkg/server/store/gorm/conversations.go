package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure ConversationsStore implements store.ConversationsStore
var _ store.ConversationsStore = (*ConversationsStore)(nil)

// ConversationsStore implements store.ConversationsStore using GORM
type ConversationsStore struct {
	db *gorm.DB
}

// NewConversationsStore creates a new ConversationsStore
func NewConversationsStore(db *gorm.DB) *ConversationsStore {
	return &ConversationsStore{db: db}
}

// CreateConversation starts a conversation under an agent.
func (s *ConversationsStore) CreateConversation(agentID, title string) (*model.Conversation, error) {
	c := model.Conversation{
		ConversationID: uuid.NewString(),
		AgentID:        agentID,
		Title:          title,
	}
	if err := s.db.Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConversation retrieves a conversation by id scoped to an agent.
func (s *ConversationsStore) FindConversation(id, agentID string) (*model.Conversation, error) {
	var c model.Conversation
	tx := s.db.Where("conversation_id = ? AND agent_id = ?", id, agentID).First(&c)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrConversationNotFound
		}
		return nil, tx.Error
	}
	return &c, nil
}

// ListConversations lists an agent's conversations, newest first.
func (s *ConversationsStore) ListConversations(agentID string) ([]model.Conversation, error) {
	var conversations []model.Conversation
	tx := s.db.Where("agent_id = ?", agentID).Order("updated_at desc").Find(&conversations)
	return conversations, tx.Error
}

// DeleteConversation removes a conversation and its messages.
func (s *ConversationsStore) DeleteConversation(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("conversation_id = ?", id).Delete(&model.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrConversationNotFound
		}
		return nil
	})
}

// SaveMessage appends a message and bumps the conversation's updated_at.
func (s *ConversationsStore) SaveMessage(m model.Message) (*model.Message, error) {
	m.MessageID = uuid.NewString()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("conversation_id = ?", m.ConversationID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns a conversation's messages in creation order.
func (s *ConversationsStore) ListMessages(conversationID string) ([]model.Message, error) {
	var messages []model.Message
	tx := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages)
	return messages, tx.Error
}
