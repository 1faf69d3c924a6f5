package gorm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure StatsStore implements store.StatsStore
var _ store.StatsStore = (*StatsStore)(nil)

// StatsStore implements store.StatsStore using GORM
type StatsStore struct {
	db *gorm.DB
}

// NewStatsStore creates a new StatsStore
func NewStatsStore(db *gorm.DB) *StatsStore {
	return &StatsStore{db: db}
}

// CountPackages returns the number of registry packages.
func (s *StatsStore) CountPackages() (int64, error) {
	var n int64
	err := s.db.Model(&model.Package{}).Count(&n).Error
	return n, err
}

// CountTools returns the number of extracted tools.
func (s *StatsStore) CountTools() (int64, error) {
	var n int64
	err := s.db.Model(&model.Tool{}).
		Where("extraction = ?", model.ExtractionExtracted).
		Count(&n).Error
	return n, err
}

// CountCollections returns the number of collections.
func (s *StatsStore) CountCollections() (int64, error) {
	var n int64
	err := s.db.Model(&model.Collection{}).Count(&n).Error
	return n, err
}

// CountAgents returns the number of agents.
func (s *StatsStore) CountAgents() (int64, error) {
	var n int64
	err := s.db.Model(&model.Agent{}).Count(&n).Error
	return n, err
}

// TotalDownloads sums weekly downloads across packages.
func (s *StatsStore) TotalDownloads() (int64, error) {
	var n int64
	err := s.db.Raw(`SELECT COALESCE(SUM(downloads), 0) FROM packages`).Scan(&n).Error
	return n, err
}

// UpsertSnapshot writes the day's snapshot, replacing an earlier one
// captured the same day.
func (s *StatsStore) UpsertSnapshot(snapshot model.StatsSnapshot) error {
	var existing model.StatsSnapshot
	tx := s.db.Where("captured_on = ?", snapshot.CapturedOn).First(&existing)
	if tx.Error != nil {
		if tx.Error != gorm.ErrRecordNotFound {
			return tx.Error
		}
		snapshot.SnapshotID = uuid.NewString()
		return s.db.Create(&snapshot).Error
	}
	return s.db.Model(&model.StatsSnapshot{}).
		Where("snapshot_id = ?", existing.SnapshotID).
		Updates(map[string]interface{}{
			"total_packages":    snapshot.TotalPackages,
			"total_tools":       snapshot.TotalTools,
			"total_collections": snapshot.TotalCollections,
			"total_agents":      snapshot.TotalAgents,
			"total_downloads":   snapshot.TotalDownloads,
		}).Error
}

// ListSnapshots returns up to days of snapshot history, oldest first.
func (s *StatsStore) ListSnapshots(days int) ([]model.StatsSnapshot, error) {
	var snapshots []model.StatsSnapshot
	tx := s.db.Raw(`
		SELECT * FROM (
			SELECT * FROM stats_snapshots ORDER BY captured_on DESC LIMIT ?
		) recent ORDER BY captured_on ASC
	`, days).Scan(&snapshots)
	return snapshots, tx.Error
}
