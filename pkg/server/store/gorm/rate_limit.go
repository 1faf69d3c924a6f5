package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// Ensure RateLimitStore implements store.RateLimitStore
var _ store.RateLimitStore = (*RateLimitStore)(nil)

// RateLimitStore implements store.RateLimitStore using GORM
type RateLimitStore struct {
	db *gorm.DB
}

// NewRateLimitStore creates a new RateLimitStore
func NewRateLimitStore(db *gorm.DB) *RateLimitStore {
	return &RateLimitStore{db: db}
}

// IncrementWindow adds one to the (key, windowStart) counter and returns
// the new count.
func (s *RateLimitStore) IncrementWindow(key string, windowStart time.Time) (int, error) {
	var count int
	err := s.db.Raw(`
		INSERT INTO rate_limit_windows (key, window_start, count)
		VALUES (?, ?, 1)
		ON CONFLICT (key, window_start)
		DO UPDATE SET count = rate_limit_windows.count + 1
		RETURNING count
	`, key, windowStart).Scan(&count).Error
	return count, err
}

// WindowCount returns the counter for (key, windowStart), 0 if absent.
func (s *RateLimitStore) WindowCount(key string, windowStart time.Time) (int, error) {
	var window model.RateLimitWindow
	tx := s.db.Where("key = ? AND window_start = ?", key, windowStart).First(&window)
	if tx.Error != nil {
		if tx.Error == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, tx.Error
	}
	return window.Count, nil
}

// PurgeWindowsBefore deletes counters older than cutoff.
func (s *RateLimitStore) PurgeWindowsBefore(cutoff time.Time) error {
	return s.db.Where("window_start < ?", cutoff).Delete(&model.RateLimitWindow{}).Error
}
