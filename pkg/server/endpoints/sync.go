package endpoints

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/registry"
	"github.com/tpmjs/tpmjs/pkg/server"
)

func RegisterSyncEndpoints(s *server.Server) {
	router := s.Router.PathPrefix("/api/sync").Subrouter()
	router.Use(cronAuth)

	router.HandleFunc("/run", handleSyncRun(s)).Methods("POST")
	router.HandleFunc("/health", handleSyncHealth(s)).Methods("POST")
	router.HandleFunc("/stats", handleSyncStats(s)).Methods("POST")
	router.HandleFunc("/logs", handleSyncLogs(s)).Methods("GET")
}

// cronAuth gates the sync triggers behind the configured cron token.
func cronAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := config.Get().CronToken
		if token == "" {
			respondWithError(w, http.StatusForbidden, "forbidden", "sync endpoints are disabled")
			return
		}

		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
			subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "invalid cron token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func handleSyncRun(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// A full sweep can outlive the server's write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		result, err := s.Syncer.Run(r.Context(), syncTrigger(r))
		if err != nil {
			if errors.Is(err, registry.ErrSyncInProgress) {
				respondWithError(w, http.StatusConflict, "conflict", "sync already in progress")
				return
			}
			auditSync(s, r, nil, err)
			respondWithError(w, http.StatusInternalServerError, "internal", "sync failed: "+err.Error())
			return
		}
		auditSync(s, r, result, nil)

		respondWithData(w, http.StatusOK, map[string]interface{}{
			"sync_log_id": result.SyncLogID,
			"scanned":     result.Counts.Scanned,
			"added":       result.Counts.Added,
			"updated":     result.Counts.Updated,
			"failed":      result.Counts.Failed,
		})
	}
}

func handleSyncHealth(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		result, err := s.HealthChecker.Run(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "health sweep failed: "+err.Error())
			return
		}

		respondWithData(w, http.StatusOK, map[string]interface{}{
			"checked":  result.Checked,
			"passing":  result.Passing,
			"degraded": result.Degraded,
			"failing":  result.Failing,
		})
	}
}

func handleSyncStats(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := s.Snapshotter.Run(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "snapshot failed: "+err.Error())
			return
		}
		respondWithData(w, http.StatusOK, snapshotView(*snapshot))
	}
}

func handleSyncLogs(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r)
		logs, total, err := s.SyncLogs.ListSyncLogs(limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list sync logs")
			return
		}

		views := make([]map[string]interface{}, 0, len(logs))
		for _, log := range logs {
			views = append(views, syncLogView(log))
		}
		respondWithPage(w, http.StatusOK, views, total, limit, offset)
	}
}

func syncTrigger(r *http.Request) string {
	if r.URL.Query().Get("trigger") == "manual" {
		return "manual"
	}
	return "cron"
}

func auditSync(s *server.Server, r *http.Request, result *registry.Result, err error) {
	if s.Audit == nil {
		return
	}
	event := audit.SyncEvent{Trigger: syncTrigger(r), Success: err == nil}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	if result != nil {
		event.PackagesScanned = result.Counts.Scanned
		event.PackagesAdded = result.Counts.Added
		event.PackagesUpdated = result.Counts.Updated
		event.PackagesFailed = result.Counts.Failed
	}
	s.Audit.Log(event)
}

func syncLogView(log model.SyncLog) map[string]interface{} {
	return map[string]interface{}{
		"id":               log.SyncLogID,
		"trigger":          log.Trigger,
		"status":           log.Status.String(),
		"packages_scanned": log.PackagesScanned,
		"packages_added":   log.PackagesAdded,
		"packages_updated": log.PackagesUpdated,
		"packages_failed":  log.PackagesFailed,
		"error":            log.Error,
		"started_at":       log.StartedAt,
		"finished_at":      log.FinishedAt,
	}
}
