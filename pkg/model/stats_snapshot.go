package model

import "time"

// StatsSnapshot is a daily aggregate of registry counters.
type StatsSnapshot struct {
	SnapshotID       string    `gorm:"column:snapshot_id;primaryKey"`
	TotalPackages    int64     `gorm:"column:total_packages"`
	TotalTools       int64     `gorm:"column:total_tools"`
	TotalCollections int64     `gorm:"column:total_collections"`
	TotalAgents      int64     `gorm:"column:total_agents"`
	TotalDownloads   int64     `gorm:"column:total_downloads"`
	CapturedOn       string    `gorm:"column:captured_on;uniqueIndex;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (StatsSnapshot) TableName() string {
	return "stats_snapshots"
}
