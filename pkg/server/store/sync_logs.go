package store

import "github.com/tpmjs/tpmjs/pkg/model"

// SyncCounts is the running tally of one sync pass.
type SyncCounts struct {
	Scanned int
	Added   int
	Updated int
	Failed  int
}

// SyncLogsStore abstracts sync run bookkeeping
type SyncLogsStore interface {
	// StartSyncLog opens a sync log row in the running state.
	StartSyncLog(trigger string) (*model.SyncLog, error)

	// UpdateSyncCounts refreshes the counts on a running log.
	UpdateSyncCounts(id string, counts SyncCounts) error

	// FinishSyncLog closes a log with a final status and optional error.
	FinishSyncLog(id string, status model.SyncStatus, syncErr string) error

	// ListSyncLogs returns one page of logs, newest first, and the total.
	ListSyncLogs(limit, offset int) ([]model.SyncLog, int64, error)
}
