package integration

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/chat"
	"github.com/tpmjs/tpmjs/pkg/config"
	"github.com/tpmjs/tpmjs/pkg/crypto"
	"github.com/tpmjs/tpmjs/pkg/executor"
	"github.com/tpmjs/tpmjs/pkg/ratelimit"
	"github.com/tpmjs/tpmjs/pkg/registry"
	"github.com/tpmjs/tpmjs/pkg/server"
	"github.com/tpmjs/tpmjs/pkg/server/endpoints"
	gormstore "github.com/tpmjs/tpmjs/pkg/server/store/gorm"
	"github.com/tpmjs/tpmjs/pkg/session"
	"github.com/tpmjs/tpmjs/pkg/toolloader"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

const testSessionSecret = "integration-test-session-secret"

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	RawDB         *sql.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	DataKey       []byte
	Cipher        crypto.SymmetricCipher
	HTTPClient    *http.Client
	Cancel        context.CancelFunc
	ServerProcess *exec.Cmd
	InlineServer  *server.Server
}

// NewTestContext creates a new test context with PostgreSQL testcontainer.
// Modes:
//   - Binary mode (default): Set TPMJS_BINARY to the path of the tpmjsctl binary
//   - Inline mode: Set TPMJS_INLINE=1 to run the server in-process (no binary needed)
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	inlineMode := os.Getenv("TPMJS_INLINE") == "1"
	binaryPath := os.Getenv("TPMJS_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, errors.New("Either TPMJS_BINARY or TPMJS_INLINE=1 is required.\n\nBinary mode:\n  go build -o tpmjsctl ./cmd/tpmjsctl\n  INTEGRATION_TEST=1 TPMJS_BINARY=$(pwd)/tpmjsctl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 TPMJS_INLINE=1 go test -v ./test/integration/...")
	}

	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("TPMJS_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tpmjs_test"),
		tcpostgres.WithUsername("tpmjs"),
		tcpostgres.WithPassword("tpmjs"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://tpmjs:tpmjs@%s:%s/tpmjs_test?sslmode=disable", host, port.Port())

	// Connect with GORM for test setup/assertions
	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := runMigrations(rawDB, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create data key and cipher
	dataKey := make([]byte, 32)
	for i := range dataKey {
		dataKey[i] = byte(i)
	}
	cipher, err := crypto.NewSymmetric(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	serverPort := "18080"
	serverURL := fmt.Sprintf("http://127.0.0.1:%s", serverPort)

	var serverProcess *exec.Cmd
	var inlineServer *server.Server
	var cancel context.CancelFunc

	if inlineMode {
		inlineServer, cancel, err = startInlineServer(db, cipher, serverPort)
		if err != nil {
			_ = pgContainer.Terminate(ctx)
			return nil, fmt.Errorf("failed to start inline server: %w", err)
		}
	} else {
		serverProcess, cancel, err = startBinary(binaryPath, connStr, dataKey, serverPort)
		if err != nil {
			_ = pgContainer.Terminate(ctx)
			return nil, fmt.Errorf("failed to start server binary: %w", err)
		}
	}

	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		cancel()
		if serverProcess != nil && serverProcess.Process != nil {
			_ = serverProcess.Process.Kill()
		}
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		DB:            db,
		RawDB:         rawDB,
		Container:     pgContainer,
		ServerURL:     serverURL,
		DatabaseURL:   connStr,
		DataKey:       dataKey,
		Cipher:        cipher,
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		Cancel:        cancel,
		ServerProcess: serverProcess,
		InlineServer:  inlineServer,
	}, nil
}

// startInlineServer starts the server in-process (no binary needed)
func startInlineServer(db *gorm.DB, cipher crypto.SymmetricCipher, port string) (*server.Server, context.CancelFunc, error) {
	_, cancel := context.WithCancel(context.Background())

	cfg := config.Get()

	sessions, err := session.NewIssuer([]byte(testSessionSecret), cfg.SessionTokenTTL())
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to create session issuer: %w", err)
	}

	packagesStore := gormstore.NewPackagesStore(db)
	toolsStore := gormstore.NewToolsStore(db)
	syncLogsStore := gormstore.NewSyncLogsStore(db)
	conversationsStore := gormstore.NewConversationsStore(db)
	simulationsStore := gormstore.NewSimulationsStore(db)
	statsStore := gormstore.NewStatsStore(db)

	execClient := executor.NewClient(cfg.ExecutorURL, cfg.ExecutorToken)
	loader := toolloader.NewLoader(
		toolloader.NewStoreSource(toolsStore),
		execClient,
		toolloader.NewCache(cfg.ToolCacheTTL()),
	)
	builtins := tools.NewBuiltinRegistry()

	deps := server.Deps{
		Config: cfg,
		DB:     db,

		Users:         gormstore.NewUsersStore(db),
		APIKeys:       gormstore.NewAPIKeysStore(db),
		Packages:      packagesStore,
		Tools:         toolsStore,
		Collections:   gormstore.NewCollectionsStore(db),
		Agents:        gormstore.NewAgentsStore(db),
		Conversations: conversationsStore,
		Health:        gormstore.NewHealthStore(db),
		SyncLogs:      syncLogsStore,
		Stats:         statsStore,
		Simulations:   simulationsStore,
		Credentials:   gormstore.NewCredentialsStore(db),

		Limiter:  ratelimit.NewMemoryLimiter(10000, time.Minute),
		Sessions: sessions,
		Cipher:   cipher,
		Audit:    audit.NewLogger(),

		Executor: execClient,
		Builtins: builtins,
		Loader:   loader,
		Engine:   chat.NewEngine(conversationsStore, simulationsStore, builtins, loader, cfg.ChatMaxToolRounds),

		Syncer:        registry.NewSyncer(nil, execClient, packagesStore, toolsStore, syncLogsStore, registry.SyncerConfig{}),
		HealthChecker: registry.NewHealthChecker(execClient, packagesStore, gormstore.NewHealthStore(db)),
		Snapshotter:   registry.NewSnapshotter(statsStore),

		CompleterFor: func(userID string) (chat.Completer, error) {
			return nil, errors.New("no LLM provider in integration tests")
		},
	}

	s := server.NewServer(deps, "127.0.0.1", port)
	endpoints.RegisterAll(s)

	go func() {
		_ = s.Start()
	}()

	return s, cancel, nil
}

// startBinary starts the tpmjsctl server binary
func startBinary(binaryPath, dbURL string, dataKey []byte, port string) (*exec.Cmd, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Use --no-migrate since we already ran migrations in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", port)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		"TPMJS_DATA_KEY="+base64.StdEncoding.EncodeToString(dataKey),
		"TPMJS_SESSION_SECRET="+testSessionSecret,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start binary: %w", err)
	}

	return cmd, cancel, nil
}

// waitForServer polls the server until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/api/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Cancel != nil {
		tc.Cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", errors.New("project root not found (looking for go.mod)")
}

// runMigrations executes the up migration files in order
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", filepath.Base(file), err)
		}
	}

	return nil
}
