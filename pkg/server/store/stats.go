package store

import "github.com/tpmjs/tpmjs/pkg/model"

// StatsStore abstracts registry-wide aggregates and snapshots
type StatsStore interface {
	// CountPackages returns the number of registry packages.
	CountPackages() (int64, error)

	// CountTools returns the number of extracted tools.
	CountTools() (int64, error)

	// CountCollections returns the number of collections.
	CountCollections() (int64, error)

	// CountAgents returns the number of agents.
	CountAgents() (int64, error)

	// TotalDownloads sums weekly downloads across packages.
	TotalDownloads() (int64, error)

	// UpsertSnapshot writes the day's snapshot, replacing an earlier one
	// captured the same day.
	UpsertSnapshot(s model.StatsSnapshot) error

	// ListSnapshots returns up to days of snapshot history, oldest first.
	ListSnapshots(days int) ([]model.StatsSnapshot, error)
}
