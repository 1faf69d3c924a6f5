package endpoints

import (
	"net/http"

	"github.com/tpmjs/tpmjs/pkg/identity"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	auth := middleware.NewAuthenticator(srv.APIKeys, srv.Sessions, srv.Audit)

	rateLimiter := middleware.NewRateLimiter(srv.Limiter, auth)
	srv.Router.Use(rateLimiter.Middleware)

	RegisterHealthEndpoint(srv)
	RegisterPackagesEndpoints(srv)
	RegisterToolsEndpoints(srv)
	RegisterStatsEndpoints(srv)
	RegisterPublicCollectionEndpoint(srv)
	RegisterAuthEndpoint(srv)
	RegisterSyncEndpoints(srv)
	RegisterMCPEndpoints(srv)

	RegisterCollectionsEndpoints(srv, auth)
	RegisterAgentsEndpoints(srv, auth)
	RegisterConversationsEndpoints(srv, auth)
	RegisterUserEndpoints(srv, auth)
	RegisterSimulationsEndpoints(srv, auth)
}

// currentIdentity pulls the authenticated caller off the request context.
// Handlers behind the auth middleware can assume it is present; the guard
// covers misregistered routes.
func currentIdentity(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	id, ok := identity.Get(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return nil, false
	}
	return id, true
}
