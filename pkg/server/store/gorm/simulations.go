package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure SimulationsStore implements store.SimulationsStore
var _ store.SimulationsStore = (*SimulationsStore)(nil)

// SimulationsStore implements store.SimulationsStore using GORM
type SimulationsStore struct {
	db *gorm.DB
}

// NewSimulationsStore creates a new SimulationsStore
func NewSimulationsStore(db *gorm.DB) *SimulationsStore {
	return &SimulationsStore{db: db}
}

// SaveSimulation records one playground run.
func (s *SimulationsStore) SaveSimulation(sim model.Simulation) (*model.Simulation, error) {
	sim.SimulationID = uuid.NewString()
	if err := s.db.Create(&sim).Error; err != nil {
		return nil, err
	}
	return &sim, nil
}

// ListSimulations lists a user's runs, newest first. Ownership goes through
// the agent.
func (s *SimulationsStore) ListSimulations(userID string, limit, offset int) ([]model.Simulation, int64, error) {
	base := s.db.Model(&model.Simulation{}).
		Joins("JOIN agents ON agents.agent_id = simulations.agent_id").
		Where("agents.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sims []model.Simulation
	tx := base.Select("simulations.*").
		Order("simulations.created_at desc").
		Limit(limit).Offset(offset).
		Find(&sims)
	return sims, total, tx.Error
}

// FindSimulation retrieves a user's run by id.
func (s *SimulationsStore) FindSimulation(id, userID string) (*model.Simulation, error) {
	var sim model.Simulation
	tx := s.db.Model(&model.Simulation{}).
		Select("simulations.*").
		Joins("JOIN agents ON agents.agent_id = simulations.agent_id").
		Where("simulations.simulation_id = ? AND agents.user_id = ?", id, userID).
		First(&sim)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return nil, store.ErrSimulationNotFound
		}
		return nil, tx.Error
	}
	return &sim, nil
}
