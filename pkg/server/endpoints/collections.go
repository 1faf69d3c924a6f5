package endpoints

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func RegisterCollectionsEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/api/collections").Subrouter()
	router.Use(auth.Middleware)

	router.HandleFunc("", handleListCollections(s.Collections)).Methods("GET")
	router.HandleFunc("", handleCreateCollection(s.Collections)).Methods("POST")
	router.HandleFunc("/{id}", handleGetCollection(s.Collections)).Methods("GET")
	router.HandleFunc("/{id}", handleUpdateCollection(s.Collections)).Methods("PUT")
	router.HandleFunc("/{id}", handleDeleteCollection(s.Collections)).Methods("DELETE")
	router.HandleFunc("/{id}/tools", handleAddCollectionTool(s.Collections, s.Tools)).Methods("POST")
	router.HandleFunc("/{id}/tools/{toolID}", handleRemoveCollectionTool(s.Collections)).Methods("DELETE")
}

// RegisterPublicCollectionEndpoint exposes public collections without auth.
// The two-segment path keeps it from colliding with the id-based routes,
// which never contain a slash.
func RegisterPublicCollectionEndpoint(s *server.Server) {
	s.Router.HandleFunc(
		"/api/collections/{user}/{slug}",
		handlePublicCollection(s.Collections, s.Audit),
	).Methods("GET")
}

type collectionRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	MCPEnabled  bool   `json:"mcp_enabled"`
}

func handleListCollections(collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		list, err := collections.ListCollections(id.UserID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list collections")
			return
		}

		views := make([]map[string]interface{}, 0, len(list))
		for _, c := range list {
			views = append(views, collectionView(c))
		}
		respondWithData(w, http.StatusOK, views)
	}
}

func handleCreateCollection(collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		var req collectionRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}
		if req.Name == "" || req.Slug == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "name and slug are required")
			return
		}
		if !slugPattern.MatchString(req.Slug) {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "slug must be lowercase letters, digits, and hyphens")
			return
		}

		created, err := collections.CreateCollection(model.Collection{
			UserID:      id.UserID,
			Slug:        req.Slug,
			Name:        req.Name,
			Description: req.Description,
			Public:      req.Public,
			MCPEnabled:  req.MCPEnabled,
		})
		if err != nil {
			if errors.Is(err, store.ErrDuplicateSlug) {
				respondWithError(w, http.StatusConflict, "conflict", "collection slug already in use")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to create collection")
			return
		}
		respondWithData(w, http.StatusCreated, collectionView(*created))
	}
}

func handleGetCollection(collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		c, ok := ownedCollection(w, r, collections, id.UserID)
		if !ok {
			return
		}

		view := collectionView(*c)
		if tools, err := collections.ListTools(c.CollectionID); err == nil {
			toolViews := make([]map[string]interface{}, 0, len(tools))
			for _, t := range tools {
				toolViews = append(toolViews, toolWithPackageView(t))
			}
			view["tools"] = toolViews
		}
		respondWithData(w, http.StatusOK, view)
	}
}

func handleUpdateCollection(collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		c, ok := ownedCollection(w, r, collections, id.UserID)
		if !ok {
			return
		}

		var req collectionRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}
		if req.Name != "" {
			c.Name = req.Name
		}
		c.Description = req.Description
		c.Public = req.Public
		c.MCPEnabled = req.MCPEnabled

		updated, err := collections.UpdateCollection(*c)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to update collection")
			return
		}
		respondWithData(w, http.StatusOK, collectionView(*updated))
	}
}

func handleDeleteCollection(collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		c, ok := ownedCollection(w, r, collections, id.UserID)
		if !ok {
			return
		}

		if err := collections.DeleteCollection(c.CollectionID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to delete collection")
			return
		}
		respondWithData(w, http.StatusOK, map[string]string{"deleted": c.CollectionID})
	}
}

func handleAddCollectionTool(collections store.CollectionsStore, tools store.ToolsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		c, ok := ownedCollection(w, r, collections, id.UserID)
		if !ok {
			return
		}

		var req struct {
			ToolID   string `json:"tool_id"`
			Position *int   `json:"position"`
		}
		if err := decodeBody(r, &req); err != nil || req.ToolID == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "tool_id is required")
			return
		}

		if _, err := tools.FindToolByID(req.ToolID); err != nil {
			if errors.Is(err, store.ErrToolNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "tool not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to resolve tool")
			return
		}

		position := -1
		if req.Position != nil {
			position = *req.Position
		}
		if err := collections.AddTool(c.CollectionID, req.ToolID, position); err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to add tool")
			return
		}
		respondWithData(w, http.StatusCreated, map[string]string{
			"collection_id": c.CollectionID,
			"tool_id":       req.ToolID,
		})
	}
}

func handleRemoveCollectionTool(collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		c, ok := ownedCollection(w, r, collections, id.UserID)
		if !ok {
			return
		}

		toolID := mux.Vars(r)["toolID"]
		if err := collections.RemoveTool(c.CollectionID, toolID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to remove tool")
			return
		}
		respondWithData(w, http.StatusOK, map[string]string{
			"collection_id": c.CollectionID,
			"tool_id":       toolID,
		})
	}
}

func handlePublicCollection(collections store.CollectionsStore, auditLogger *audit.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)

		c, err := collections.FindCollectionBySlug(vars["user"], vars["slug"])
		if err != nil || !c.Public {
			respondWithError(w, http.StatusNotFound, "not_found", "collection not found")
			return
		}

		if auditLogger != nil {
			auditLogger.Log(audit.FetchEvent{
				ClientIP: middleware.ClientIP(r),
				Kind:     "collection",
				Subject:  vars["user"] + "/" + c.Slug,
			})
		}

		view := collectionView(*c)
		if tools, err := collections.ListTools(c.CollectionID); err == nil {
			toolViews := make([]map[string]interface{}, 0, len(tools))
			for _, t := range tools {
				toolViews = append(toolViews, toolWithPackageView(t))
			}
			view["tools"] = toolViews
		}
		respondWithData(w, http.StatusOK, view)
	}
}

// ownedCollection loads the route's collection and enforces ownership.
func ownedCollection(w http.ResponseWriter, r *http.Request, collections store.CollectionsStore, userID string) (*model.Collection, bool) {
	c, err := collections.FindCollection(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			respondWithError(w, http.StatusNotFound, "not_found", "collection not found")
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch collection")
		return nil, false
	}
	if c.UserID != userID {
		respondWithError(w, http.StatusNotFound, "not_found", "collection not found")
		return nil, false
	}
	return c, true
}

func collectionView(c model.Collection) map[string]interface{} {
	return map[string]interface{}{
		"id":          c.CollectionID,
		"slug":        c.Slug,
		"name":        c.Name,
		"description": c.Description,
		"public":      c.Public,
		"mcp_enabled": c.MCPEnabled,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}
