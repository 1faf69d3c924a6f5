package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/tpmjs/tpmjs/pkg/identity"
	"github.com/tpmjs/tpmjs/pkg/ratelimit"
)

// RateLimiter applies sliding-window limits per API key, falling back to
// the client IP for unauthenticated requests. It runs before the
// authenticator, so it resolves credentials itself and leaves the identity
// on the context for downstream middleware to reuse.
type RateLimiter struct {
	Limiter ratelimit.Limiter
	Auth    *Authenticator
}

// NewRateLimiter creates a rate limiting middleware. auth may be nil, in
// which case every request is limited by client IP.
func NewRateLimiter(limiter ratelimit.Limiter, auth *Authenticator) *RateLimiter {
	return &RateLimiter{Limiter: limiter, Auth: auth}
}

// Middleware enforces the limit and sets the X-RateLimit-* headers.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + ClientIP(r)
		if id, ok := identity.Get(r.Context()); ok && id.KeyID != "" {
			key = "key:" + id.KeyID
		} else if rl.Auth != nil {
			// Bad credentials fall through to the IP bucket; the
			// authenticator rejects them after the limit check.
			if id, _, err := rl.Auth.Identify(r); err == nil {
				if id.KeyID != "" {
					key = "key:" + id.KeyID
				}
				id.RemoteIP = net.ParseIP(ClientIP(r))
				r = r.WithContext(identity.Set(r.Context(), &id))
			}
		}

		decision, err := rl.Limiter.Allow(key)
		if err != nil {
			// A broken limiter should not take the API down.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error": map[string]string{
					"code":    "rate_limited",
					"message": "rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
