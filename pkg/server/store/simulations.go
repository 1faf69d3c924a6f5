package store

import (
	"errors"

	"github.com/tpmjs/tpmjs/pkg/model"
)

// ErrSimulationNotFound is returned when a simulation doesn't exist
var ErrSimulationNotFound = errors.New("simulation not found")

// SimulationsStore abstracts recorded playground run operations
type SimulationsStore interface {
	// SaveSimulation records one playground run.
	SaveSimulation(s model.Simulation) (*model.Simulation, error)

	// ListSimulations lists a user's runs, newest first.
	ListSimulations(userID string, limit, offset int) ([]model.Simulation, int64, error)

	// FindSimulation retrieves a user's run by id.
	// Returns ErrSimulationNotFound if it doesn't exist.
	FindSimulation(id, userID string) (*model.Simulation, error)
}
