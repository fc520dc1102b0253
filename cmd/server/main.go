package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/scrapjack/internal/api"
	"github.com/dom/scrapjack/internal/config"
	"github.com/dom/scrapjack/internal/engine"
	"github.com/dom/scrapjack/internal/repository"
	"github.com/dom/scrapjack/internal/repository/memory"
	"github.com/dom/scrapjack/internal/repository/postgres"
	"github.com/dom/scrapjack/internal/service"
	"github.com/dom/scrapjack/internal/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	repos, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("store", cfg.Store), zap.Error(err))
	}

	rng, err := engine.NewRand()
	if err != nil {
		logger.Fatal("failed to seed random source", zap.Error(err))
	}
	eng := engine.New(rng, engine.NewClock())

	// The hub publishes lobby views and reads them back for late joiners.
	hub := websocket.NewLobbyHub(logger)
	services := service.NewServices(repos, cfg, eng, hub, logger)
	hub.SetViewLoader(services.Lobby.Get)
	go hub.Run()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := services.Mode.SeedDefaults(seedCtx); err != nil {
		logger.Fatal("failed to seed modes", zap.Error(err))
	}
	cancelSeed()

	router := api.NewRouter(services, hub, logger)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.Store),
			zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	services.Close()
	hub.Stop()

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func openStore(cfg *config.Config) (*repository.Repositories, error) {
	if cfg.Store == config.StoreMemory {
		return memory.NewRepositories(), nil
	}

	level := gormlogger.Warn
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, level)
	if err != nil {
		return nil, err
	}
	return postgres.NewRepositories(db), nil
}
