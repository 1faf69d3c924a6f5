package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure HealthStore implements store.HealthStore
var _ store.HealthStore = (*HealthStore)(nil)

// HealthStore implements store.HealthStore using GORM
type HealthStore struct {
	db *gorm.DB
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity verifies database connectivity
func (s *HealthStore) CheckConnectivity() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// SaveHealthCheck records one package health probe.
func (s *HealthStore) SaveHealthCheck(hc model.HealthCheck) error {
	hc.HealthCheckID = uuid.NewString()
	return s.db.Create(&hc).Error
}

// LatestHealthChecks returns the most recent check per package.
func (s *HealthStore) LatestHealthChecks() ([]model.HealthCheck, error) {
	var checks []model.HealthCheck
	tx := s.db.Raw(`
		SELECT DISTINCT ON (package_id) *
		FROM health_checks
		ORDER BY package_id, checked_at DESC
	`).Scan(&checks)
	return checks, tx.Error
}

// HealthHistory returns recent checks for one package, newest first.
func (s *HealthStore) HealthHistory(packageID string, limit int) ([]model.HealthCheck, error) {
	var checks []model.HealthCheck
	tx := s.db.Where("package_id = ?", packageID).
		Order("checked_at desc").
		Limit(limit).
		Find(&checks)
	return checks, tx.Error
}
