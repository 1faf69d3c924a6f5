package middleware

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/tpmjs/tpmjs/pkg/apikey"
	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/identity"
	"github.com/tpmjs/tpmjs/pkg/server/store"
	"github.com/tpmjs/tpmjs/pkg/session"
)

// Authenticator validates API keys and session tokens and places the
// resulting identity on the request context.
type Authenticator struct {
	Keys     store.APIKeysStore
	Sessions *session.Issuer
	Audit    *audit.Logger
}

// NewAuthenticator creates an authenticator middleware.
func NewAuthenticator(keys store.APIKeysStore, sessions *session.Issuer, auditLogger *audit.Logger) *Authenticator {
	return &Authenticator{Keys: keys, Sessions: sessions, Audit: auditLogger}
}

// Middleware returns an HTTP middleware that accepts either a raw API key
// or a session JWT in the Authorization header.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)

		// An upstream middleware (the rate limiter) may have resolved the
		// caller already.
		if id, ok := identity.Get(r.Context()); ok {
			a.log(audit.AuthenticateEvent{
				UserID:   id.UserID,
				KeyID:    id.KeyID,
				ClientIP: clientIP,
				Method:   authMethod(*id),
				Success:  true,
			})
			next.ServeHTTP(w, r)
			return
		}

		id, method, authErr := a.Identify(r)
		if method == "" {
			unauthorized(w, authErr.Error())
			return
		}

		if authErr != nil {
			a.log(audit.AuthenticateEvent{
				UserID:       id.UserID,
				ClientIP:     clientIP,
				Method:       method,
				Success:      false,
				ErrorMessage: authErr.Error(),
			})
			unauthorized(w, authErr.Error())
			return
		}

		id.RemoteIP = net.ParseIP(clientIP)
		a.log(audit.AuthenticateEvent{
			UserID:   id.UserID,
			KeyID:    id.KeyID,
			ClientIP: clientIP,
			Method:   method,
			Success:  true,
		})
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), &id)))
	})
}

// Identify resolves the Authorization bearer token into an identity without
// writing a response or audit record. The returned method is "api-key" or
// "session", empty when the header is missing or malformed.
func (a *Authenticator) Identify(r *http.Request) (identity.Identity, string, error) {
	token, ok := bearerToken(r)
	if !ok {
		return identity.Identity{}, "", errors.New("missing or malformed Authorization header")
	}
	if strings.HasPrefix(token, "tpm_") {
		id, err := a.authenticateKey(token)
		return id, "api-key", err
	}
	id, err := a.authenticateSession(token)
	return id, "session", err
}

func authMethod(id identity.Identity) string {
	if id.Session {
		return "session"
	}
	return "api-key"
}

func (a *Authenticator) authenticateKey(raw string) (identity.Identity, error) {
	digest := apikey.Digest(raw)
	key, err := a.Keys.FindAPIKeyByDigest(digest)
	if err != nil {
		if errors.Is(err, store.ErrAPIKeyNotFound) {
			return identity.Identity{}, errors.New("invalid api key")
		}
		return identity.Identity{}, err
	}
	if key.Revoked() {
		return identity.Identity{UserID: key.UserID}, errors.New("api key revoked")
	}
	_ = a.Keys.TouchAPIKey(key.KeyID)

	return identity.Identity{
		UserID:  key.UserID,
		KeyID:   key.KeyID,
		KeyName: key.Name,
	}, nil
}

func (a *Authenticator) authenticateSession(token string) (identity.Identity, error) {
	claims, err := a.Sessions.Verify(token)
	if err != nil {
		return identity.Identity{}, errors.New("invalid session token")
	}
	return identity.Identity{
		UserID:  claims.Subject,
		KeyID:   claims.KeyID,
		Session: true,
	}, nil
}

func (a *Authenticator) log(event audit.AuthenticateEvent) {
	if a.Audit != nil {
		a.Audit.Log(event)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]string{"code": "unauthorized", "message": message},
	})
}

// ClientIP resolves the caller's address, honoring X-Forwarded-For only
// when the direct peer is a configured trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !config.Get().IsTrustedProxy(host) {
		return host
	}
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return host
	}
	first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if first == "" {
		return host
	}
	return first
}
