package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/chat"
	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/crypto"
	"github.com/tpmjs/tpmjs/pkg/db"
	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/llm"
	"github.com/tpmjs/tpmjs/pkg/npm"
	"github.com/tpmjs/tpmjs/pkg/ratelimit"
	"github.com/tpmjs/tpmjs/pkg/registry"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/endpoints"
	"github.com/tpmjs/tpmjs/pkg/server/store"
	gormstore "github.com/tpmjs/tpmjs/pkg/server/store/gorm"
	"github.com/tpmjs/tpmjs/pkg/session"
	"github.com/tpmjs/tpmjs/pkg/toolloader"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the TPMJS registry server",
	Long: `Run the TPMJS registry server.

To run the server requires the environment variables TPMJS_DATA_KEY,
TPMJS_SESSION_SECRET and DATABASE_URL.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate required environment variables first (fail fast)
		dataKeyB64, ok := os.LookupEnv("TPMJS_DATA_KEY")
		if !ok {
			fmt.Fprintln(os.Stderr, "TPMJS_DATA_KEY environment variable is required")
			os.Exit(1)
		}

		sessionSecret := os.Getenv("TPMJS_SESSION_SECRET")
		if sessionSecret == "" {
			fmt.Fprintln(os.Stderr, "TPMJS_SESSION_SECRET environment variable is required")
			os.Exit(1)
		}

		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
		if err != nil {
			fmt.Println("Bad TPMJS_DATA_KEY:", err)
			os.Exit(1)
		}

		cipher, err := crypto.NewSymmetric(dataKey)
		if err != nil {
			fmt.Println("Unable to initiate cipher:", err)
			os.Exit(1)
		}

		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			fmt.Println("Bad configuration:", err)
			os.Exit(1)
		}

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Println("Unable to connect to DB:", err)
			os.Exit(1)
		}

		sessions, err := session.NewIssuer([]byte(sessionSecret), cfg.SessionTokenTTL())
		if err != nil {
			fmt.Println("Unable to create session issuer:", err)
			os.Exit(1)
		}

		packagesStore := gormstore.NewPackagesStore(database)
		toolsStore := gormstore.NewToolsStore(database)
		syncLogsStore := gormstore.NewSyncLogsStore(database)
		credentialsStore := gormstore.NewCredentialsStore(database)
		conversationsStore := gormstore.NewConversationsStore(database)
		simulationsStore := gormstore.NewSimulationsStore(database)
		statsStore := gormstore.NewStatsStore(database)

		execClient := executor.NewClient(cfg.ExecutorURL, cfg.ExecutorToken)
		npmClient := npm.NewClient(
			npm.WithRegistryURL(cfg.NPMRegistryURL),
			npm.WithDownloadsURL(cfg.NPMDownloadsURL),
		)

		limiter := ratelimit.NewStoreLimiter(
			gormstore.NewRateLimitStore(database),
			cfg.RateLimitMaxRequests,
			cfg.RateLimitWindow(),
		)
		defer func() { _ = limiter.Close() }()

		loader := toolloader.NewLoader(
			toolloader.NewStoreSource(toolsStore),
			execClient,
			toolloader.NewCache(cfg.ToolCacheTTL()),
		)
		builtins := tools.NewBuiltinRegistry()
		auditLog := auditLogger()
		engine := chat.NewEngine(
			conversationsStore,
			simulationsStore,
			builtins,
			loader,
			cfg.ChatMaxToolRounds,
		)
		engine.SetAudit(auditLog)

		deps := server.Deps{
			Config: cfg,
			DB:     database,

			Users:         gormstore.NewUsersStore(database),
			APIKeys:       gormstore.NewAPIKeysStore(database),
			Packages:      packagesStore,
			Tools:         toolsStore,
			Collections:   gormstore.NewCollectionsStore(database),
			Agents:        gormstore.NewAgentsStore(database),
			Conversations: conversationsStore,
			Health:        gormstore.NewHealthStore(database),
			SyncLogs:      syncLogsStore,
			Stats:         statsStore,
			Simulations:   simulationsStore,
			Credentials:   credentialsStore,

			Limiter:  limiter,
			Sessions: sessions,
			Cipher:   cipher,
			Audit:    auditLog,

			Executor: execClient,
			Builtins: builtins,
			Loader:   loader,
			Engine:   engine,

			Syncer: registry.NewSyncer(npmClient, execClient, packagesStore, toolsStore, syncLogsStore, registry.SyncerConfig{
				Keyword:  cfg.RegistryKeyword,
				PageSize: cfg.SyncPageSize,
				Workers:  cfg.SyncWorkers,
			}),
			HealthChecker: registry.NewHealthChecker(execClient, packagesStore, gormstore.NewHealthStore(database)),
			Snapshotter:   registry.NewSnapshotter(statsStore),

			CompleterFor: completerFor(credentialsStore, cipher),
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(deps, host, port)

		endpoints.RegisterAll(s)

		errs := make(chan error, 1)
		go func() { errs <- s.Start() }()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		log.Printf("Running server at http://%s:%s...\n", host, port)
		select {
		case err := <-errs:
			log.Fatal(err)
		case sig := <-sigs:
			log.Printf("Received %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Shutdown(ctx); err != nil {
				log.Fatal(err)
			}
		}
	},
}

// auditLogger builds the audit logger, attaching the database sink when
// AUDIT_DATABASE_URL is set.
func auditLogger() *audit.Logger {
	logger := audit.NewLogger()
	auditStore, err := audit.NewStore()
	if err != nil {
		log.Printf("Audit database unavailable: %v", err)
		return logger
	}
	if auditStore != nil {
		logger.SetStore(auditStore)
	}
	return logger
}

// completerFor builds per-user LLM clients. A user's stored provider
// credential wins; TPMJS_LLM_API_KEY is the fallback.
func completerFor(credentials store.CredentialsStore, cipher crypto.SymmetricCipher) func(userID string) (chat.Completer, error) {
	return func(userID string) (chat.Completer, error) {
		cfg := config.Get()

		cred, err := credentials.FindCredential(userID, "openai")
		if err == nil {
			plain, derr := cipher.Decrypt([]byte(cred.CredentialID), cred.CipherText)
			if derr != nil {
				return nil, fmt.Errorf("decrypt provider credential: %w", derr)
			}
			return llm.NewClient(cfg.LLMBaseURL, string(plain)), nil
		}
		if !errors.Is(err, store.ErrCredentialNotFound) {
			return nil, err
		}

		key := os.Getenv("TPMJS_LLM_API_KEY")
		if key == "" {
			return nil, errors.New("no provider credential stored and TPMJS_LLM_API_KEY is not set")
		}
		return llm.NewClient(cfg.LLMBaseURL, key), nil
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
