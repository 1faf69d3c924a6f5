package endpoints

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func RegisterAgentsEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/api/agents").Subrouter()
	router.Use(auth.Middleware)

	router.HandleFunc("", handleListAgents(s.Agents)).Methods("GET")
	router.HandleFunc("", handleCreateAgent(s.Agents, s.Collections)).Methods("POST")
	router.HandleFunc("/{id}", handleGetAgent(s.Agents)).Methods("GET")
	router.HandleFunc("/{id}", handleUpdateAgent(s.Agents, s.Collections)).Methods("PUT")
	router.HandleFunc("/{id}", handleDeleteAgent(s.Agents)).Methods("DELETE")
}

type agentRequest struct {
	Name         string   `json:"name"`
	CollectionID string   `json:"collection_id"`
	Model        string   `json:"model"`
	SystemPrompt string   `json:"system_prompt"`
	Temperature  *float64 `json:"temperature"`
}

func handleListAgents(agents store.AgentsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		list, err := agents.ListAgents(id.UserID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list agents")
			return
		}

		views := make([]map[string]interface{}, 0, len(list))
		for _, a := range list {
			views = append(views, agentView(a))
		}
		respondWithData(w, http.StatusOK, views)
	}
}

func handleCreateAgent(agents store.AgentsStore, collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		var req agentRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}
		if req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}
		if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "temperature must be between 0 and 2")
			return
		}
		if req.CollectionID != "" && !collectionOwnedBy(collections, req.CollectionID, id.UserID) {
			respondWithError(w, http.StatusNotFound, "not_found", "collection not found")
			return
		}

		agent := model.Agent{
			UserID:       id.UserID,
			CollectionID: req.CollectionID,
			Name:         req.Name,
			Model:        req.Model,
			SystemPrompt: req.SystemPrompt,
			Temperature:  1,
		}
		if agent.Model == "" {
			agent.Model = config.Get().LLMDefaultModel
		}
		if req.Temperature != nil {
			agent.Temperature = *req.Temperature
		}

		created, err := agents.CreateAgent(agent)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to create agent")
			return
		}
		respondWithData(w, http.StatusCreated, agentView(*created))
	}
}

func handleGetAgent(agents store.AgentsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		agent, ok := ownedAgent(w, r, agents, id.UserID)
		if !ok {
			return
		}
		respondWithData(w, http.StatusOK, agentView(*agent))
	}
}

func handleUpdateAgent(agents store.AgentsStore, collections store.CollectionsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		agent, ok := ownedAgent(w, r, agents, id.UserID)
		if !ok {
			return
		}

		var req agentRequest
		if err := decodeBody(r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}
		if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "temperature must be between 0 and 2")
			return
		}
		if req.CollectionID != "" && !collectionOwnedBy(collections, req.CollectionID, id.UserID) {
			respondWithError(w, http.StatusNotFound, "not_found", "collection not found")
			return
		}

		if req.Name != "" {
			agent.Name = req.Name
		}
		if req.Model != "" {
			agent.Model = req.Model
		}
		agent.CollectionID = req.CollectionID
		agent.SystemPrompt = req.SystemPrompt
		if req.Temperature != nil {
			agent.Temperature = *req.Temperature
		}

		updated, err := agents.UpdateAgent(*agent)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to update agent")
			return
		}
		respondWithData(w, http.StatusOK, agentView(*updated))
	}
}

func handleDeleteAgent(agents store.AgentsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		agent, ok := ownedAgent(w, r, agents, id.UserID)
		if !ok {
			return
		}

		if err := agents.DeleteAgent(agent.AgentID, id.UserID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to delete agent")
			return
		}
		respondWithData(w, http.StatusOK, map[string]string{"deleted": agent.AgentID})
	}
}

func ownedAgent(w http.ResponseWriter, r *http.Request, agents store.AgentsStore, userID string) (*model.Agent, bool) {
	agent, err := agents.FindAgent(mux.Vars(r)["id"], userID)
	if err != nil {
		if errors.Is(err, store.ErrAgentNotFound) {
			respondWithError(w, http.StatusNotFound, "not_found", "agent not found")
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch agent")
		return nil, false
	}
	return agent, true
}

func collectionOwnedBy(collections store.CollectionsStore, collectionID, userID string) bool {
	c, err := collections.FindCollection(collectionID)
	return err == nil && c.UserID == userID
}

func agentView(a model.Agent) map[string]interface{} {
	return map[string]interface{}{
		"id":            a.AgentID,
		"name":          a.Name,
		"collection_id": a.CollectionID,
		"model":         a.Model,
		"system_prompt": a.SystemPrompt,
		"temperature":   a.Temperature,
		"created_at":    a.CreatedAt,
		"updated_at":    a.UpdatedAt,
	}
}
