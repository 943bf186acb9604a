package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	installmentapp "github.com/backoffice/settlement/internal/application/installment"
	reportapp "github.com/backoffice/settlement/internal/application/report"
	settlementapp "github.com/backoffice/settlement/internal/application/settlement"
	"github.com/backoffice/settlement/internal/domain/shared"
	"github.com/backoffice/settlement/internal/infrastructure/cache"
	"github.com/backoffice/settlement/internal/infrastructure/config"
	"github.com/backoffice/settlement/internal/infrastructure/event"
	"github.com/backoffice/settlement/internal/infrastructure/logger"
	"github.com/backoffice/settlement/internal/infrastructure/persistence"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting settlement engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize event serializer with all domain event types
	eventSerializer := event.NewDomainEventSerializer()

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	invoiceRepo.SetOutboxEventSaver(outboxPublisher)
	summaryRepo := persistence.NewGormDailySummaryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Transaction scope shared by the application services. Invoice
	// saves inside the scope write their events to the outbox in the
	// same transaction.
	scope := persistence.NewGormTransactionScope(db.DB)
	scope.SetOutboxEventSaver(outboxPublisher)

	// Idempotency store: Redis when reachable, in-memory otherwise
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize application services
	aggregationService := reportapp.NewAggregationService(summaryRepo, invoiceRepo, log)
	reconcileService := installmentapp.NewReconcileService(scope, idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Settlement.IdempotencyTTL,
		Enabled: true,
	}, log)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Settled documents feed the daily summaries
	statsHandler := settlementapp.NewStatsHandler(invoiceRepo, aggregationService, log)
	eventBus.Subscribe(statsHandler)
	log.Info("Event handlers registered",
		zap.Strings("stats_events", statsHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Start the outbox processor for guaranteed event delivery
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			processorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			processorConfig.PollInterval = cfg.Event.PollInterval
		}
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	}

	// Retry queued plan reconciliations until they converge
	retryCtx, stopRetries := context.WithCancel(context.Background())
	defer stopRetries()
	go func() {
		ticker := time.NewTicker(cfg.Settlement.ReconcileRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-retryCtx.Done():
				return
			case <-ticker.C:
				reconcileService.RetryPending(retryCtx)
			}
		}
	}()

	log.Info("Settlement engine started",
		zap.Duration("reconcile_retry_interval", cfg.Settlement.ReconcileRetryInterval),
	)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down settlement engine")
}
