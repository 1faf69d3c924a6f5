package model

import "time"

// RateLimitWindow is one sliding-window counter row for the store-backed
// rate limiter. Last write wins on the per-key counter.
type RateLimitWindow struct {
	Key         string    `gorm:"column:key;primaryKey"`
	WindowStart time.Time `gorm:"column:window_start;primaryKey"`
	Count       int       `gorm:"column:count;not null"`
}

func (RateLimitWindow) TableName() string {
	return "rate_limit_windows"
}
