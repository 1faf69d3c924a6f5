package model

import "time"

//go:generate go run github.com/dmarkham/enumer -type HealthStatus -trimprefix HealthStatus -transform lower -json -sql -output health_status.gen.go

// HealthStatus is the outcome of a package health probe.
type HealthStatus int

const (
	HealthStatusPassing HealthStatus = iota
	HealthStatusDegraded
	HealthStatusFailing
)

// HealthCheck records one executor probe against a package.
type HealthCheck struct {
	HealthCheckID string       `gorm:"column:health_check_id;primaryKey"`
	PackageID     string       `gorm:"column:package_id;not null;index"`
	Status        HealthStatus `gorm:"column:status;not null"`
	LatencyMs     int64        `gorm:"column:latency_ms"`
	Error         string       `gorm:"column:error"`
	CheckedAt     time.Time    `gorm:"column:checked_at;autoCreateTime"`
}

func (HealthCheck) TableName() string {
	return "health_checks"
}
