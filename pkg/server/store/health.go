package store

import "github.com/tpmjs/tpmjs/pkg/model"

// HealthStore provides service and package health operations
type HealthStore interface {
	// CheckConnectivity verifies database connectivity
	CheckConnectivity() error

	// SaveHealthCheck records one package health probe.
	SaveHealthCheck(hc model.HealthCheck) error

	// LatestHealthChecks returns the most recent check per package.
	LatestHealthChecks() ([]model.HealthCheck, error)

	// HealthHistory returns recent checks for one package, newest first.
	HealthHistory(packageID string, limit int) ([]model.HealthCheck, error)
}
