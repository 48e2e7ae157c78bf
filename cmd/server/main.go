package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	commissionapp "github.com/kolnet/backend/internal/application/commission"
	deviceapp "github.com/kolnet/backend/internal/application/device"
	integrityapp "github.com/kolnet/backend/internal/application/integrity"
	networkapp "github.com/kolnet/backend/internal/application/network"
	"github.com/kolnet/backend/internal/domain/commission"
	"github.com/kolnet/backend/internal/domain/integrity"
	"github.com/kolnet/backend/internal/infrastructure/cache"
	"github.com/kolnet/backend/internal/infrastructure/config"
	"github.com/kolnet/backend/internal/infrastructure/logger"
	"github.com/kolnet/backend/internal/infrastructure/persistence"
	"github.com/kolnet/backend/internal/infrastructure/telemetry"
	"github.com/kolnet/backend/internal/interfaces/http/handler"
	"github.com/kolnet/backend/internal/interfaces/http/middleware"
	"github.com/kolnet/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			KOL Network API
//	@version		1.0
//	@description	Relationship graph, device tiers, commissions and referential integrity.
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	ActorID
//	@in							header
//	@name						X-User-ID

//	@securityDefinitions.apikey	ActorRole
//	@in							header
//	@name						X-User-Role

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting KOL network backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	log = logsProvider.Bridge(log)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
		if err := logsProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Logger provider shutdown failed", zap.Error(err))
		}
	}()
	meter := meterProvider.Meter(serviceName)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), cfg.Database.SlowThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL && !cfg.IsProduction(),
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		return err
	}

	// every catalog table must be reachable before any delete is served
	if err := integrity.CheckCoverage(integrity.DefaultCatalog(), persistence.NewGormTableRegistry(db.DB)); err != nil {
		return err
	}

	metrics, err := telemetry.NewNetworkMetrics(meter, log)
	if err != nil {
		return err
	}
	metrics.StartPeriodicCollection(ctx, persistence.NewNetworkStats(db.DB), cfg.Telemetry.MetricsInterval)
	defer metrics.Stop()

	treeCache := cache.NewTreeCache(cfg.Network, cfg.Redis, log)
	defer func() {
		if err := treeCache.Close(); err != nil {
			log.Warn("Error closing tree cache", zap.Error(err))
		}
	}()

	rates := commission.RateTable{
		LowTierRate:  cfg.Commission.LowTierRate,
		HighTierRate: cfg.Commission.HighTierRate,
		LowTierUnit:  cfg.Commission.LowTierUnitCommission,
		HighTierUnit: cfg.Commission.HighTierUnitCommission,
		Tolerance:    cfg.Commission.DeviceCommissionTolerance,
	}
	scope := persistence.NewGormTransactionScope(db.DB)

	relationships := networkapp.NewRelationshipService(scope,
		persistence.NewGormRelationshipRepository(db.DB),
		persistence.NewGormEntityStore(db.DB),
		networkapp.Config{
			MaxChainDepth:    cfg.Network.MaxChainDepth,
			MaxTreeDepth:     cfg.Network.MaxTreeDepth,
			TreeCacheTTL:     cfg.Network.TreeCacheTTL,
			OperationTimeout: cfg.App.OperationTimeout,
		}, log)
	relationships.SetTreeCache(treeCache)
	relationships.SetNetworkMetrics(metrics)

	devices := deviceapp.NewService(scope, persistence.NewGormAccumulatorRepository(db.DB), rates, deviceapp.Config{
		MaxWriteRetries:  cfg.Device.MaxWriteRetries,
		OperationTimeout: cfg.App.OperationTimeout,
	}, log)
	devices.SetNetworkMetrics(metrics)

	commissions, err := commissionapp.NewService(scope, persistence.NewRepositories(db.DB), rates, commissionapp.Config{
		MaxChainDepth:    cfg.Network.MaxChainDepth,
		MaxWriteRetries:  cfg.Device.MaxWriteRetries,
		OperationTimeout: cfg.App.OperationTimeout,
	}, log)
	if err != nil {
		return err
	}
	commissions.SetNetworkMetrics(metrics)

	integrities, err := integrityapp.NewService(scope, integrity.DefaultCatalog(), integrityapp.Config{
		MaxCascadeDepth:  cfg.Integrity.MaxCascadeDepth,
		OperationTimeout: cfg.App.OperationTimeout,
	}, log)
	if err != nil {
		return err
	}
	integrities.SetNetworkMetrics(metrics)
	integrities.SetTreeCache(treeCache)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	engine := router.NewEngine(router.EngineConfig{
		Logger:      log,
		Meter:       meter,
		Tracing:     middleware.TracingConfig{ServiceName: serviceName, Enabled: cfg.Telemetry.Enabled},
		MaxBodySize: cfg.HTTP.MaxBodySize,
	}, router.Handlers{
		Relationships: handler.NewRelationshipHandler(relationships),
		Devices:       handler.NewDeviceHandler(devices, commissions),
		Commissions:   handler.NewCommissionHandler(commissions),
		Integrity:     handler.NewIntegrityHandler(integrities),
		System:        handler.NewSystemHandler(cfg.App.Name, sqlDB),
	})
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
