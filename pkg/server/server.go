package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/chat"
	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/crypto"
	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/ratelimit"
	"github.com/tpmjs/tpmjs/pkg/registry"
	"github.com/tpmjs/tpmjs/pkg/server/store"
	"github.com/tpmjs/tpmjs/pkg/session"
	"github.com/tpmjs/tpmjs/pkg/toolloader"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

// Version is reported by the health endpoint and the MCP handshake.
const Version = "0.1.0"

// Deps carries everything the server wires into its routes.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB

	Users         store.UsersStore
	APIKeys       store.APIKeysStore
	Packages      store.PackagesStore
	Tools         store.ToolsStore
	Collections   store.CollectionsStore
	Agents        store.AgentsStore
	Conversations store.ConversationsStore
	Health        store.HealthStore
	SyncLogs      store.SyncLogsStore
	Stats         store.StatsStore
	Simulations   store.SimulationsStore
	Credentials   store.CredentialsStore

	Limiter  ratelimit.Limiter
	Sessions *session.Issuer
	Cipher   crypto.SymmetricCipher
	Audit    *audit.Logger

	Executor *executor.Client
	Builtins *tools.Registry
	Loader   *toolloader.Loader
	Engine   *chat.Engine

	Syncer        *registry.Syncer
	HealthChecker *registry.HealthChecker
	Snapshotter   *registry.Snapshotter

	// CompleterFor builds an LLM client for a user, using their stored
	// provider credential when present and the configured default otherwise.
	CompleterFor func(userID string) (chat.Completer, error)
}

// Server is the TPMJS API server.
type Server struct {
	Deps
	Router *mux.Router
	srv    *http.Server
}

// NewServer creates a server listening on host:port.
func NewServer(deps Deps, host, port string) *Server {
	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		Addr:         host + ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Deps:   deps,
		Router: router,
		srv:    srv,
	}
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
