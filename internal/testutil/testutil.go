package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/scrapjack/internal/api"
	"github.com/dom/scrapjack/internal/config"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/dom/scrapjack/internal/repository/memory"
	repoPostgres "github.com/dom/scrapjack/internal/repository/postgres"
	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a migrated
// connection. The test is skipped when no container runtime is available.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_scrapjack"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := repoPostgres.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB.DB = db
	testDB.DSN = dsn
	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"spectators",
		"players",
		"teams",
		"games",
		"lobby_bans",
		"lobbies",
		"modes",
		"user_sessions",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		PublicURL:          "http://scrapjack.test",
		LogLevel:           "debug",
		Store:              config.StoreMemory,
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		ShuffleSettleDelay: 10 * time.Millisecond,
		LobbyIdleTimeout:   time.Minute,
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.LobbyHub
	Config   *config.Config
	Rand     *ScriptedRand
}

// ServerOption adjusts the stack NewTestServer builds.
type ServerOption func(*serverOptions)

type serverOptions struct {
	wrapViews func(next websocket.ViewLoader) websocket.ViewLoader
}

// WithViewLoader wraps the loader the hub uses for joining clients.
func WithViewLoader(wrap func(next websocket.ViewLoader) websocket.ViewLoader) ServerOption {
	return func(o *serverOptions) {
		o.wrapViews = wrap
	}
}

// NewTestServer wires the full HTTP and websocket stack over the in-memory
// store. Rolls come from a ScriptedRand the test can feed.
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfg := TestConfig()
	log := zap.NewNop()
	repos := memory.NewRepositories()
	rng := NewScriptedRand()
	eng := engine.New(rng, engine.NewClock())

	hub := websocket.NewLobbyHub(log)
	services := service.NewServices(repos, cfg, eng, hub, log)
	var views websocket.ViewLoader = services.Lobby.Get
	if o.wrapViews != nil {
		views = o.wrapViews(views)
	}
	hub.SetViewLoader(views)
	go hub.Run()

	if err := services.Mode.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("failed to seed modes: %v", err)
	}

	router := api.NewRouter(services, hub, log)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Config:   cfg,
		Rand:     rng,
	}

	t.Cleanup(func() {
		server.Close()
		services.Close()
		hub.Stop()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
