package audit

import "fmt"

// SyncEvent records the outcome of a registry sync run.
type SyncEvent struct {
	Trigger         string // "cron" or "manual"
	PackagesScanned int
	PackagesAdded   int
	PackagesUpdated int
	PackagesFailed  int
	Success         bool
	ErrorMessage    string
}

func (e SyncEvent) MessageID() string {
	return "sync"
}

func (e SyncEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("registry sync (%s) scanned %d packages: %d added, %d updated, %d failed",
			e.Trigger, e.PackagesScanned, e.PackagesAdded, e.PackagesUpdated, e.PackagesFailed)
	}
	msg := fmt.Sprintf("registry sync (%s) failed", e.Trigger)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e SyncEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityError
}

func (e SyncEvent) Facility() int {
	return FacilityAuth
}

func (e SyncEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDSync: {
			"trigger": e.Trigger,
			"scanned": fmt.Sprintf("%d", e.PackagesScanned),
			"added":   fmt.Sprintf("%d", e.PackagesAdded),
			"updated": fmt.Sprintf("%d", e.PackagesUpdated),
			"failed":  fmt.Sprintf("%d", e.PackagesFailed),
		},
		SDIDAction: {
			"operation": "sync",
			"result":    result,
		},
	}
}
