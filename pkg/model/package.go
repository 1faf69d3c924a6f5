package model

import "time"

// Package is an npm package indexed by the registry.
type Package struct {
	PackageID    string      `gorm:"column:package_id;primaryKey"`
	Name         string      `gorm:"column:name;uniqueIndex;not null"`
	Description  string      `gorm:"column:description"`
	Version      string      `gorm:"column:version;not null"`
	Keywords     StringSlice `gorm:"column:keywords;type:jsonb"`
	Readme       string      `gorm:"column:readme"`
	Author       string      `gorm:"column:author"`
	Homepage     string      `gorm:"column:homepage"`
	Downloads    int64       `gorm:"column:downloads"`
	HealthScore  float64     `gorm:"column:health_score"`
	Verified     bool        `gorm:"column:verified"`
	Deprecated   bool        `gorm:"column:deprecated"`
	LastSyncedAt *time.Time  `gorm:"column:last_synced_at"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Package) TableName() string {
	return "packages"
}
