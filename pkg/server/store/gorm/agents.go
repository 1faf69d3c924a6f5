package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure AgentsStore implements store.AgentsStore
var _ store.AgentsStore = (*AgentsStore)(nil)

// AgentsStore implements store.AgentsStore using GORM
type AgentsStore struct {
	db *gorm.DB
}

// NewAgentsStore creates a new AgentsStore
func NewAgentsStore(db *gorm.DB) *AgentsStore {
	return &AgentsStore{db: db}
}

// CreateAgent creates an agent.
func (s *AgentsStore) CreateAgent(a model.Agent) (*model.Agent, error) {
	a.AgentID = uuid.NewString()
	if err := s.db.Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAgent retrieves a user's agent by id.
func (s *AgentsStore) FindAgent(id, userID string) (*model.Agent, error) {
	var a model.Agent
	tx := s.db.Where("agent_id = ? AND user_id = ?", id, userID).First(&a)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrAgentNotFound
		}
		return nil, tx.Error
	}
	return &a, nil
}

// ListAgents lists a user's agents.
func (s *AgentsStore) ListAgents(userID string) ([]model.Agent, error) {
	var agents []model.Agent
	tx := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&agents)
	return agents, tx.Error
}

// UpdateAgent updates an agent's mutable attributes.
func (s *AgentsStore) UpdateAgent(a model.Agent) (*model.Agent, error) {
	updates := map[string]interface{}{
		"name":          a.Name,
		"model":         a.Model,
		"system_prompt": a.SystemPrompt,
		"temperature":   a.Temperature,
		"collection_id": a.CollectionID,
	}
	tx := s.db.Model(&model.Agent{}).
		Where("agent_id = ? AND user_id = ?", a.AgentID, a.UserID).
		Updates(updates)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, store.ErrAgentNotFound
	}
	return s.FindAgent(a.AgentID, a.UserID)
}

// DeleteAgent removes a user's agent.
func (s *AgentsStore) DeleteAgent(id, userID string) error {
	tx := s.db.Where("agent_id = ? AND user_id = ?", id, userID).Delete(&model.Agent{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrAgentNotFound
	}
	return nil
}
