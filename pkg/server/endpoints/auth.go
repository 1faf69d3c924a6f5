package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tpmjs/tpmjs/pkg/apikey"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

func RegisterAuthEndpoint(s *server.Server) {
	s.Router.HandleFunc("/api/auth/token", handleIssueToken(s)).Methods("POST")
}

// handleIssueToken exchanges a raw API key for a short-lived session JWT.
// The key travels in the Authorization header, same as on any other route.
func handleIssueToken(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "missing or malformed Authorization header")
			return
		}
		raw := strings.TrimSpace(parts[1])
		if _, err := apikey.Prefix(raw); err != nil {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "a raw API key is required")
			return
		}

		key, err := s.APIKeys.FindAPIKeyByDigest(apikey.Digest(raw))
		if err != nil {
			if errors.Is(err, store.ErrAPIKeyNotFound) {
				respondWithError(w, http.StatusUnauthorized, "unauthorized", "invalid api key")
				return
			}
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to verify api key")
			return
		}
		if key.Revoked() {
			respondWithError(w, http.StatusUnauthorized, "unauthorized", "api key revoked")
			return
		}

		token, expiresAt, err := s.Sessions.Issue(key.UserID, key.KeyID)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "internal", "failed to issue session token")
			return
		}
		_ = s.APIKeys.TouchAPIKey(key.KeyID)

		respondWithData(w, http.StatusOK, map[string]interface{}{
			"token":      token,
			"expires_at": expiresAt,
		})
	}
}
