package endpoints

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tpmjs/tpmjs/pkg/apikey"
	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func RegisterUserEndpoints(s *server.Server, auth *middleware.Authenticator) {
	router := s.Router.PathPrefix("/api/user").Subrouter()
	router.Use(auth.Middleware)

	router.HandleFunc("/profile", handleProfile(s.Users)).Methods("GET")
	router.HandleFunc("/keys", handleListKeys(s.APIKeys)).Methods("GET")
	router.HandleFunc("/keys", handleCreateKey(s)).Methods("POST")
	router.HandleFunc("/keys/{id}", handleRevokeKey(s)).Methods("DELETE")
	router.HandleFunc("/credentials", handlePutCredential(s)).Methods("PUT")
	router.HandleFunc("/credentials/{provider}", handleDeleteCredential(s)).Methods("DELETE")
}

func handleProfile(users store.UsersStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		user, err := users.FindUser(id.UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "user not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to fetch profile")
			return
		}

		respondWithData(w, http.StatusOK, map[string]interface{}{
			"id":         user.UserID,
			"email":      user.Email,
			"name":       user.Name,
			"created_at": user.CreatedAt,
		})
	}
}

func handleListKeys(keys store.APIKeysStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		list, err := keys.ListAPIKeys(id.UserID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to list api keys")
			return
		}

		views := make([]map[string]interface{}, 0, len(list))
		for _, k := range list {
			views = append(views, keyView(k))
		}
		respondWithData(w, http.StatusOK, views)
	}
}

// handleCreateKey mints a key and returns the raw value exactly once.
func handleCreateKey(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := decodeBody(r, &req); err != nil || req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "name is required")
			return
		}

		raw, prefix, digest, err := apikey.Generate()
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to generate api key")
			return
		}

		key, err := s.APIKeys.CreateAPIKey(id.UserID, req.Name, prefix, digest)
		if err != nil {
			auditKeyEvent(s, id.UserID, "", middleware.ClientIP(r), "create", false, err.Error())
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to store api key")
			return
		}
		auditKeyEvent(s, id.UserID, key.KeyID, middleware.ClientIP(r), "create", true, "")

		view := keyView(*key)
		view["key"] = raw
		respondWithData(w, http.StatusCreated, view)
	}
}

func handleRevokeKey(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		keyID := mux.Vars(r)["id"]
		if err := s.APIKeys.RevokeAPIKey(keyID, id.UserID); err != nil {
			if errors.Is(err, store.ErrAPIKeyNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "api key not found")
				return
			}
			auditKeyEvent(s, id.UserID, keyID, middleware.ClientIP(r), "revoke", false, err.Error())
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to revoke api key")
			return
		}
		auditKeyEvent(s, id.UserID, keyID, middleware.ClientIP(r), "revoke", true, "")
		respondWithData(w, http.StatusOK, map[string]string{"revoked": keyID})
	}
}

// handlePutCredential stores a provider key encrypted, with the credential
// row id as AAD so ciphertext cannot be moved between rows.
func handlePutCredential(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		var req struct {
			Provider string `json:"provider"`
			Key      string `json:"key"`
		}
		if err := decodeBody(r, &req); err != nil || req.Provider == "" || req.Key == "" {
			respondWithError(w, http.StatusBadRequest, "invalid_request", "provider and key are required")
			return
		}

		credentialID := id.UserID + "/" + req.Provider
		cipherText, err := s.Cipher.Encrypt([]byte(credentialID), []byte(req.Key))
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to encrypt credential")
			return
		}

		stored, err := s.Credentials.UpsertCredential(model.ProviderCredential{
			CredentialID: credentialID,
			UserID:       id.UserID,
			Provider:     req.Provider,
			CipherText:   cipherText,
		})
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to store credential")
			return
		}

		respondWithData(w, http.StatusOK, map[string]interface{}{
			"provider":   stored.Provider,
			"updated_at": stored.UpdatedAt,
		})
	}
}

func handleDeleteCredential(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := currentIdentity(w, r)
		if !ok {
			return
		}

		provider := mux.Vars(r)["provider"]
		if err := s.Credentials.DeleteCredential(id.UserID, provider); err != nil {
			if errors.Is(err, store.ErrCredentialNotFound) {
				respondWithError(w, http.StatusNotFound, "not_found", "credential not found")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to delete credential")
			return
		}
		respondWithData(w, http.StatusOK, map[string]string{"deleted": provider})
	}
}

func auditKeyEvent(s *server.Server, userID, keyID, clientIP, operation string, success bool, errMsg string) {
	if s.Audit == nil {
		return
	}
	s.Audit.Log(audit.APIKeyEvent{
		UserID:       userID,
		KeyID:        keyID,
		ClientIP:     clientIP,
		Operation:    operation,
		Success:      success,
		ErrorMessage: errMsg,
	})
}

func keyView(k model.APIKey) map[string]interface{} {
	return map[string]interface{}{
		"id":           k.KeyID,
		"name":         k.Name,
		"prefix":       k.Prefix,
		"last_used_at": k.LastUsedAt,
		"revoked_at":   k.RevokedAt,
		"created_at":   k.CreatedAt,
	}
}
