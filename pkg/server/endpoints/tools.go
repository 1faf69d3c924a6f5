package endpoints

import (
	"net/http"

	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func RegisterToolsEndpoints(s *server.Server) {
	s.Router.HandleFunc("/api/tools/search", handleSearchTools(s.Tools)).Methods("GET")
}

func handleSearchTools(tools store.ToolsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "q parameter is required")
			return
		}

		limit, offset := pagination(r)
		matches, total, err := tools.SearchTools(q, limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to search tools")
			return
		}

		views := make([]map[string]interface{}, 0, len(matches))
		for _, m := range matches {
			views = append(views, toolWithPackageView(m))
		}
		respondWithPage(w, http.StatusOK, views, total, limit, offset)
	}
}

func toolWithPackageView(m store.ToolWithPackage) map[string]interface{} {
	view := toolView(m.Tool)
	view["package"] = m.PackageName
	view["package_version"] = m.PackageVersion
	return view
}
