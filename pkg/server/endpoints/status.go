package endpoints

import (
	"net/http"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func RegisterHealthEndpoint(s *server.Server) {
	s.Router.HandleFunc("/api/health", handleHealth(s.Health)).Methods("GET")
}

func RegisterStatsEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/stats", handleStats(s.Stats)).Methods("GET")
	s.Router.HandleFunc("/api/stats/history", handleStatsHistory(s.Stats)).Methods("GET")
}

func handleHealth(health store.HealthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := health.CheckConnectivity(); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		respondWithData(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleStats(stats store.StatsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type count struct {
			name  string
			fetch func() (int64, error)
		}
		counts := []count{
			{"total_packages", stats.CountPackages},
			{"total_tools", stats.CountTools},
			{"total_collections", stats.CountCollections},
			{"total_agents", stats.CountAgents},
			{"total_downloads", stats.TotalDownloads},
		}

		view := make(map[string]interface{}, len(counts))
		for _, c := range counts {
			value, err := c.fetch()
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "internal", "failed to compute stats")
				return
			}
			view[c.name] = value
		}
		respondWithData(w, http.StatusOK, view)
	}
}

func handleStatsHistory(stats store.StatsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 30
		if raw := r.URL.Query().Get("days"); raw != "" {
			if v, err := parsePositiveInt(raw); err == nil {
				days = v
			}
		}
		if days > 365 {
			days = 365
		}

		snapshots, err := stats.ListSnapshots(days)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to load stats history")
			return
		}

		views := make([]map[string]interface{}, 0, len(snapshots))
		for _, s := range snapshots {
			views = append(views, snapshotView(s))
		}
		respondWithData(w, http.StatusOK, views)
	}
}

func snapshotView(s model.StatsSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"total_packages":    s.TotalPackages,
		"total_tools":       s.TotalTools,
		"total_collections": s.TotalCollections,
		"total_agents":      s.TotalAgents,
		"total_downloads":   s.TotalDownloads,
		"captured_on":       s.CapturedOn,
	}
}
