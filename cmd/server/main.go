package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tokenfund/rebalancer/internal/clients/ledger"
	"github.com/tokenfund/rebalancer/internal/clients/pricefeed"
	"github.com/tokenfund/rebalancer/internal/config"
	"github.com/tokenfund/rebalancer/internal/database"
	"github.com/tokenfund/rebalancer/internal/events"
	"github.com/tokenfund/rebalancer/internal/locks"
	"github.com/tokenfund/rebalancer/internal/modules/access"
	"github.com/tokenfund/rebalancer/internal/modules/oracle"
	"github.com/tokenfund/rebalancer/internal/modules/rebalancing"
	"github.com/tokenfund/rebalancer/internal/modules/registry"
	"github.com/tokenfund/rebalancer/internal/modules/valuation"
	"github.com/tokenfund/rebalancer/internal/scheduler"
	"github.com/tokenfund/rebalancer/internal/server"
	"github.com/tokenfund/rebalancer/pkg/logger"
)

func main() {
	// Load configuration first so the log level is right from the start
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting rebalancing engine")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Audit trail
	eventStore := events.NewStore(db.Conn(), log)
	eventManager := events.NewManager(eventStore, log)

	// Access control
	authorizer := access.NewStaticAuthorizer(cfg.OperatorTokens, cfg.AdminTokens)
	pauseSwitch := access.NewPauseSwitch(cfg.StartPaused, eventManager)
	gate := access.NewGate(authorizer, pauseSwitch, log)

	// External collaborators
	feedClient := pricefeed.NewClient(cfg.PriceFeedURL, log)
	ledgerClient := ledger.NewClient(cfg.LedgerURL, log)

	// Engine
	lockRegistry := locks.NewRegistry()
	registryRepo := registry.NewRepository(db.Conn(), log)
	registryService := registry.NewService(registryRepo, lockRegistry, eventManager, log)
	oracleAdapter := oracle.NewAdapter(feedClient, cfg.MaxQuoteAge, cfg.QuoteTimeout, log)
	valuationEngine := valuation.NewEngine(ledgerClient, oracleAdapter, log)
	executor := rebalancing.NewExecutor(
		registryService, valuationEngine, ledgerClient,
		lockRegistry, eventManager, cfg.TreasuryAccount, log,
	)
	coordinator := rebalancing.NewCoordinator(executor, pauseSwitch, cfg.BatchWorkers, log)

	// Scheduler
	sched := scheduler.New(log)
	if cfg.RebalanceCron != "" {
		cycle := scheduler.NewRebalanceCycleJob(registryService, coordinator, 10*time.Minute, log)
		if err := sched.AddJob(cfg.RebalanceCron, cycle); err != nil {
			log.Fatal().Err(err).Msg("Failed to register rebalance cycle")
		}
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:        cfg.Port,
		Log:         log,
		DB:          db,
		DevMode:     cfg.DevMode,
		Gate:        gate,
		Pause:       pauseSwitch,
		EventStore:  eventStore,
		Registry:    registry.NewHandler(registryService, gate, log),
		Valuation:   valuation.NewHandler(registryService, valuationEngine, log),
		Rebalancing: rebalancing.NewHandler(executor, coordinator, gate, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
