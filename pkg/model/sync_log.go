package model

import "time"

//go:generate go run github.com/dmarkham/enumer -type SyncStatus -trimprefix SyncStatus -transform lower -json -sql -output sync_status.gen.go

// SyncStatus is the state of a registry sync run.
type SyncStatus int

const (
	SyncStatusRunning SyncStatus = iota
	SyncStatusSucceeded
	SyncStatusFailed
)

// SyncLog records one registry sync run.
type SyncLog struct {
	SyncLogID       string     `gorm:"column:sync_log_id;primaryKey"`
	Trigger         string     `gorm:"column:trigger;not null"`
	Status          SyncStatus `gorm:"column:status;not null"`
	PackagesScanned int        `gorm:"column:packages_scanned"`
	PackagesAdded   int        `gorm:"column:packages_added"`
	PackagesUpdated int        `gorm:"column:packages_updated"`
	PackagesFailed  int        `gorm:"column:packages_failed"`
	Error           string     `gorm:"column:error"`
	StartedAt       time.Time  `gorm:"column:started_at;autoCreateTime"`
	FinishedAt      *time.Time `gorm:"column:finished_at"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
