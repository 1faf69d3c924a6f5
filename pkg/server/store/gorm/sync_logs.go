package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure SyncLogsStore implements store.SyncLogsStore
var _ store.SyncLogsStore = (*SyncLogsStore)(nil)

// SyncLogsStore implements store.SyncLogsStore using GORM
type SyncLogsStore struct {
	db *gorm.DB
}

// NewSyncLogsStore creates a new SyncLogsStore
func NewSyncLogsStore(db *gorm.DB) *SyncLogsStore {
	return &SyncLogsStore{db: db}
}

// StartSyncLog opens a sync log row in the running state.
func (s *SyncLogsStore) StartSyncLog(trigger string) (*model.SyncLog, error) {
	log := model.SyncLog{
		SyncLogID: uuid.NewString(),
		Trigger:   trigger,
		Status:    model.SyncStatusRunning,
	}
	if err := s.db.Create(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// UpdateSyncCounts refreshes the counts on a running log.
func (s *SyncLogsStore) UpdateSyncCounts(id string, counts store.SyncCounts) error {
	return s.db.Model(&model.SyncLog{}).
		Where("sync_log_id = ?", id).
		Updates(map[string]interface{}{
			"packages_scanned": counts.Scanned,
			"packages_added":   counts.Added,
			"packages_updated": counts.Updated,
			"packages_failed":  counts.Failed,
		}).Error
}

// FinishSyncLog closes a log with a final status and optional error.
func (s *SyncLogsStore) FinishSyncLog(id string, status model.SyncStatus, syncErr string) error {
	now := time.Now()
	return s.db.Model(&model.SyncLog{}).
		Where("sync_log_id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"error":       syncErr,
			"finished_at": &now,
		}).Error
}

// ListSyncLogs returns one page of logs, newest first, and the total.
func (s *SyncLogsStore) ListSyncLogs(limit, offset int) ([]model.SyncLog, int64, error) {
	var total int64
	if err := s.db.Model(&model.SyncLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []model.SyncLog
	tx := s.db.Order("started_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, tx.Error
}
