package endpoints

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

var readmeRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

func RegisterPackagesEndpoints(s *server.Server) {
	router := s.Router

	router.HandleFunc("/api/packages", handleListPackages(s.Packages)).Methods("GET")

	// Scoped npm names contain a slash, so the name pattern must span
	// segments and the tools route must register first.
	router.HandleFunc("/api/packages/{name:.+}/tools", handlePackageTools(s.Packages, s.Tools)).Methods("GET")
	router.HandleFunc("/api/packages/{name:.+}", handlePackageDetail(s.Packages, s.Tools, s.Health, s.Audit)).Methods("GET")
}

func handleListPackages(packages store.PackagesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r)
		filter := store.PackageFilter{
			Query:  r.URL.Query().Get("q"),
			Sort:   r.URL.Query().Get("sort"),
			Limit:  limit,
			Offset: offset,
		}
		if raw := r.URL.Query().Get("verified"); raw != "" {
			verified := raw == "true"
			filter.Verified = &verified
		}

		page, total, err := packages.ListPackages(filter)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list packages")
			return
		}

		views := make([]map[string]interface{}, 0, len(page))
		for _, pkg := range page {
			views = append(views, packageView(pkg))
		}
		respondWithPage(w, http.StatusOK, views, total, limit, offset)
	}
}

func handlePackageDetail(packages store.PackagesStore, tools store.ToolsStore, health store.HealthStore, auditLogger *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := packageName(r)

		pkg, err := packages.FindPackage(name)
		if err != nil {
			if errors.Is(err, store.ErrPackageNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "package not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch package")
			return
		}

		if auditLogger != nil {
			auditLogger.Log(audit.FetchEvent{
				ClientIP: middleware.ClientIP(r),
				Kind:     "package",
				Subject:  pkg.Name,
			})
		}

		view := packageView(*pkg)
		view["readme"] = pkg.Readme
		view["readme_html"] = renderReadme(pkg.Readme)

		if pkgTools, err := tools.ListToolsByPackage(pkg.Name); err == nil {
			toolViews := make([]map[string]interface{}, 0, len(pkgTools))
			for _, t := range pkgTools {
				toolViews = append(toolViews, toolView(t))
			}
			view["tools"] = toolViews
		}
		if history, err := health.HealthHistory(pkg.PackageID, 10); err == nil && len(history) > 0 {
			view["health"] = healthView(history[0])
		}

		respondWithData(w, http.StatusOK, view)
	}
}

func handlePackageTools(packages store.PackagesStore, tools store.ToolsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := packageName(r)

		if _, err := packages.FindPackage(name); err != nil {
			if errors.Is(err, store.ErrPackageNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "package not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch package")
			return
		}

		pkgTools, err := tools.ListToolsByPackage(name)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list tools")
			return
		}

		views := make([]map[string]interface{}, 0, len(pkgTools))
		for _, t := range pkgTools {
			views = append(views, toolView(t))
		}
		respondWithData(w, http.StatusOK, views)
	}
}

// packageName pulls the npm package name from the route, undoing the
// percent-encoding a scoped name may arrive with.
func packageName(r *http.Request) string {
	raw := mux.Vars(r)["name"]
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func renderReadme(markdown string) string {
	if markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := readmeRenderer.Convert([]byte(markdown), &buf); err != nil {
		return ""
	}
	return buf.String()
}

func packageView(pkg model.Package) map[string]interface{} {
	return map[string]interface{}{
		"id":             pkg.PackageID,
		"name":           pkg.Name,
		"description":    pkg.Description,
		"version":        pkg.Version,
		"keywords":       []string(pkg.Keywords),
		"author":         pkg.Author,
		"homepage":       pkg.Homepage,
		"downloads":      pkg.Downloads,
		"health_score":   pkg.HealthScore,
		"verified":       pkg.Verified,
		"deprecated":     pkg.Deprecated,
		"last_synced_at": pkg.LastSyncedAt,
		"updated_at":     pkg.UpdatedAt,
	}
}

func toolView(t model.Tool) map[string]interface{} {
	return map[string]interface{}{
		"id":               t.ToolID,
		"name":             t.Name,
		"description":      t.Description,
		"input_schema":     map[string]interface{}(t.InputSchema),
		"extraction":       t.Extraction,
		"extraction_error": t.ExtractionError,
	}
}

func healthView(hc model.HealthCheck) map[string]interface{} {
	return map[string]interface{}{
		"status":     hc.Status.String(),
		"latency_ms": hc.LatencyMs,
		"error":      hc.Error,
		"checked_at": hc.CheckedAt,
	}
}
