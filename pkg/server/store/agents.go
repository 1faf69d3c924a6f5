package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrAgentNotFound is returned when an agent doesn't exist
var ErrAgentNotFound = errors.New("agent not found")

// AgentsStore abstracts agent operations
type AgentsStore interface {
	// CreateAgent creates an agent.
	CreateAgent(a model.Agent) (*model.Agent, error)

	// FindAgent retrieves a user's agent by id.
	// Returns ErrAgentNotFound if it doesn't exist or belongs to another user.
	FindAgent(id, userID string) (*model.Agent, error)

	// ListAgents lists a user's agents.
	ListAgents(userID string) ([]model.Agent, error)

	// UpdateAgent updates an agent's mutable attributes.
	UpdateAgent(a model.Agent) (*model.Agent, error)

	// DeleteAgent removes a user's agent.
	DeleteAgent(id, userID string) error
}
