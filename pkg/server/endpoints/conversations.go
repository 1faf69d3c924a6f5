package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tpmjs/tpmjs/pkg/chat"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
	"github.com/tpmjs/tpmjs/pkg/server/store"
	"github.com/tpmjs/tpmjs/pkg/toolloader"
)

func RegisterConversationsEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/api/agents").Subrouter()
	router.Use(auth.Middleware)

	router.HandleFunc("/{id}/conversations", handleListConversations(s.Agents, s.Conversations)).Methods("GET")
	router.HandleFunc("/{id}/conversations", handleCreateConversation(s.Agents, s.Conversations)).Methods("POST")
	router.HandleFunc("/{id}/conversation/{cid}", handleGetConversation(s.Agents, s.Conversations)).Methods("GET")
	router.HandleFunc("/{id}/conversation/{cid}", handleDeleteConversation(s)).Methods("DELETE")
	router.HandleFunc("/{id}/conversation/{cid}/messages", handlePostMessage(s)).Methods("POST")
}

func handleListConversations(agents store.AgentsStore, conversations store.ConversationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}
		agent, ok := ownedAgent(w, r, agents, id.UserID)
		if !ok {
			return
		}

		list, err := conversations.ListConversations(agent.AgentID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list conversations")
			return
		}

		views := make([]map[string]interface{}, 0, len(list))
		for _, c := range list {
			views = append(views, conversationView(c))
		}
		respondWithData(w, http.StatusOK, views)
	}
}

func handleCreateConversation(agents store.AgentsStore, conversations store.ConversationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}
		agent, ok := ownedAgent(w, r, agents, id.UserID)
		if !ok {
			return
		}

		var req struct {
			Title string `json:"title"`
		}
		_ = decodeBody(r, &req)

		created, err := conversations.CreateConversation(agent.AgentID, req.Title)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to create conversation")
			return
		}
		respondWithData(w, http.StatusCreated, conversationView(*created))
	}
}

func handleGetConversation(agents store.AgentsStore, conversations store.ConversationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}
		agent, ok := ownedAgent(w, r, agents, id.UserID)
		if !ok {
			return
		}

		conversation, err := conversations.FindConversation(mux.Vars(r)["cid"], agent.AgentID)
		if err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "conversation not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch conversation")
			return
		}

		view := conversationView(*conversation)
		if messages, err := conversations.ListMessages(conversation.ConversationID); err == nil {
			messageViews := make([]map[string]interface{}, 0, len(messages))
			for _, m := range messages {
				messageViews = append(messageViews, messageView(m))
			}
			view["messages"] = messageViews
		}
		respondWithData(w, http.StatusOK, view)
	}
}

func handleDeleteConversation(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}
		agent, ok := ownedAgent(w, r, s.Agents, id.UserID)
		if !ok {
			return
		}

		conversation, err := s.Conversations.FindConversation(mux.Vars(r)["cid"], agent.AgentID)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}

		if err := s.Conversations.DeleteConversation(conversation.ConversationID); err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to delete conversation")
			return
		}
		if s.Loader != nil {
			s.Loader.Invalidate(conversation.ConversationID)
		}
		respondWithData(w, http.StatusOK, map[string]string{"deleted": conversation.ConversationID})
	}
}

// handlePostMessage runs one agent turn and streams it back as SSE.
func handlePostMessage(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}
		agent, ok := ownedAgent(w, r, s.Agents, id.UserID)
		if !ok {
			return
		}

		conversation, err := s.Conversations.FindConversation(mux.Vars(r)["cid"], agent.AgentID)
		if err != nil {
			respondWithError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}

		var req struct {
			Content string   `json:"content"`
			Tools   []string `json:"tools"`
		}
		if err := decodeBody(r, &req); err != nil || req.Content == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "content is required")
			return
		}

		refs := make([]toolloader.Ref, 0, len(req.Tools))
		for _, raw := range req.Tools {
			ref, err := toolloader.ParseRef(raw)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid tool reference %q", raw))
				return
			}
			refs = append(refs, ref)
		}

		completer, err := s.CompleterFor(id.UserID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to configure model client")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			respondWithError(w, http.StatusInternalServerError, "internal", "streaming unsupported")
			return
		}

		// The server's write timeout would cut long turns short.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		sink := func(event chat.Event) {
			payload, err := json.Marshal(event.Data)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}

		turn := chat.Turn{
			Agent:          *agent,
			ConversationID: conversation.ConversationID,
			Input:          req.Content,
			ToolRefs:       refs,
			ClientIP:       middleware.ClientIP(r),
		}
		if err := s.Engine.Run(r.Context(), completer, turn, sink); err != nil {
			sink(chat.Event{Type: chat.EventError, Data: err.Error()})
		}
	}
}

func conversationView(c model.Conversation) map[string]interface{} {
	return map[string]interface{}{
		"id":         c.ConversationID,
		"agent_id":   c.AgentID,
		"title":      c.Title,
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}
}

func messageView(m model.Message) map[string]interface{} {
	view := map[string]interface{}{
		"id":         m.MessageID,
		"role":       m.Role,
		"content":    m.Content,
		"created_at": m.CreatedAt,
	}
	if m.ToolCalls != nil {
		view["tool_calls"] = map[string]interface{}(m.ToolCalls)
	}
	if m.ToolCallID != "" {
		view["tool_call_id"] = m.ToolCallID
	}
	return view
}
