package endpoints

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func RegisterSimulationsEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/api/simulations").Subrouter()
	router.Use(auth.Middleware)

	router.HandleFunc("", handleListSimulations(s.Simulations)).Methods("GET")
	router.HandleFunc("/{id}", handleGetSimulation(s.Simulations)).Methods("GET")
}

func handleListSimulations(simulations store.SimulationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		limit, offset := pagination(r)
		list, total, err := simulations.ListSimulations(id.UserID, limit, offset)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list simulations")
			return
		}

		views := make([]map[string]interface{}, 0, len(list))
		for _, sim := range list {
			views = append(views, simulationView(sim, false))
		}
		respondWithPage(w, http.StatusOK, views, total, limit, offset)
	}
}

func handleGetSimulation(simulations store.SimulationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		sim, err := simulations.FindSimulation(mux.Vars(r)["id"], id.UserID)
		if err != nil {
			if errors.Is(err, store.ErrSimulationNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "simulation not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch simulation")
			return
		}
		respondWithData(w, http.StatusOK, simulationView(*sim, true))
	}
}

func simulationView(sim model.Simulation, includeTranscript bool) map[string]interface{} {
	view := map[string]interface{}{
		"id":               sim.SimulationID,
		"agent_id":         sim.AgentID,
		"conversation_id":  sim.ConversationID,
		"input":            sim.Input,
		"tool_invocations": sim.ToolInvocations,
		"status":           sim.Status,
		"created_at":       sim.CreatedAt,
	}
	if includeTranscript {
		view["transcript"] = map[string]interface{}(sim.Transcript)
	}
	return view
}
