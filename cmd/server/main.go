package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	billingapp "github.com/hospital/backend/internal/application/billing"
	insuranceapp "github.com/hospital/backend/internal/application/insurance"
	reportapp "github.com/hospital/backend/internal/application/report"
	"github.com/hospital/backend/internal/domain/shared"
	"github.com/hospital/backend/internal/infrastructure/cache"
	"github.com/hospital/backend/internal/infrastructure/config"
	"github.com/hospital/backend/internal/infrastructure/event"
	"github.com/hospital/backend/internal/infrastructure/logger"
	"github.com/hospital/backend/internal/infrastructure/persistence"
	"github.com/hospital/backend/internal/infrastructure/pricing"
	"github.com/hospital/backend/internal/interfaces/http/dto"
	"github.com/hospital/backend/internal/interfaces/http/handler"
	"github.com/hospital/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidations(); err != nil {
		log.Fatal("failed to register binding validations", zap.Error(err))
	}

	// Database
	dbLogLevel := gormlogger.Silent
	if cfg.Log.Level == "debug" {
		dbLogLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, dbLogLevel)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	writeOffRepo := persistence.NewGormWriteOffRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	glEntryRepo := persistence.NewGormGLEntryRepository(db.DB)
	reportRepo := persistence.NewGormReportQueryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Events flow through the transactional outbox: domain events are saved
	// in the same transaction as the aggregate, then drained onto the bus by
	// the background processor.
	serializer := event.NewRevenueCycleSerializer()
	publisher := event.NewOutboxPublisher(serializer)
	scope := persistence.NewGormTransactionScope(db.DB, publisher)

	bus := event.NewInMemoryEventBus(log)

	idempotencyStore, err := newIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("failed to close idempotency store", zap.Error(err))
		}
	}()

	idempotencyCfg := shared.DefaultIdempotencyConfig()
	glPosting := event.NewIdempotentHandler(
		event.NewGLPostingHandler(glEntryRepo, log), idempotencyStore, idempotencyCfg, log)
	notifications := event.NewIdempotentHandler(
		event.NewNotificationHandler(log), idempotencyStore, idempotencyCfg, log)
	bus.Subscribe(glPosting)
	bus.Subscribe(notifications)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := bus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}

	processor := event.NewOutboxProcessor(outboxRepo, bus, serializer, event.OutboxProcessorConfig{
		BatchSize:        cfg.Event.BatchSize,
		PollInterval:     cfg.Event.PollInterval,
		CleanupEnabled:   cfg.Event.CleanupEnabled,
		CleanupRetention: cfg.Event.CleanupRetention,
		CleanupInterval:  time.Hour,
	}, log)
	if cfg.Event.ProcessorEnabled {
		if err := processor.Start(ctx); err != nil {
			log.Fatal("failed to start outbox processor", zap.Error(err))
		}
	} else {
		log.Warn("outbox processor disabled; saved events will not be delivered")
	}

	// Pricing
	prices, err := pricing.NewTablePriceResolver(cfg.Pricing.ChargeTablePath)
	if err != nil {
		log.Fatal("failed to load charge master",
			zap.String("path", cfg.Pricing.ChargeTablePath), zap.Error(err))
	}

	// Application services
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, prices, scope, log)
	paymentService := billingapp.NewPaymentService(invoiceRepo, paymentRepo, scope, log)
	writeOffService := billingapp.NewWriteOffService(invoiceRepo, writeOffRepo, scope, log)
	claimService := insuranceapp.NewClaimService(claimRepo, invoiceRepo, scope, log)
	reportService := reportapp.NewReportService(reportRepo, glEntryRepo, log)

	// HTTP
	r := router.New(log).Register(
		handler.NewInvoiceHandler(invoiceService, paymentService),
		handler.NewWriteOffHandler(writeOffService),
		handler.NewClaimHandler(claimService),
		handler.NewReportHandler(reportService),
	)
	handler.NewSystemHandler(db, version).RegisterRoutes(r.Engine())
	engine := r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting requests first, then drain the outbox so in-flight
	// writes still get their events delivered.
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if cfg.Event.ProcessorEnabled {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("outbox processor shutdown failed", zap.Error(err))
		}
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// newIdempotencyStore picks the Redis store when Redis is configured so that
// multiple instances share a dedup window, and falls back to the in-memory
// store for single-instance deployments.
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Redis.Enabled {
		log.Info("using in-memory idempotency store")
		return cache.NewInMemoryIdempotencyStore(), nil
	}
	store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	log.Info("using redis idempotency store",
		zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	return store, nil
}
