// Command server runs the risk simulation and grading engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urbanyield/riskengine/internal/application"
	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/internal/infrastructure/marketdata"
	"github.com/urbanyield/riskengine/internal/infrastructure/monitoring"
	"github.com/urbanyield/riskengine/internal/infrastructure/notify"
	"github.com/urbanyield/riskengine/internal/infrastructure/persistence/postgres"
	redcache "github.com/urbanyield/riskengine/internal/infrastructure/persistence/redis"
	"github.com/urbanyield/riskengine/internal/infrastructure/search"
	"github.com/urbanyield/riskengine/internal/interfaces/http/handlers"
	"github.com/urbanyield/riskengine/internal/interfaces/http/router"
	"github.com/urbanyield/riskengine/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "riskengine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	metrics := monitoring.NewMetrics()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}

	propertyRepo := postgres.NewPropertyRepository(db)
	resultRepo := postgres.NewRiskResultRepository(db)
	historyRepo := postgres.NewGradeHistoryRepository(db)
	metricRepo := postgres.NewMarketMetricRepository(db)
	tx := postgres.NewTxManager(db)

	var notifier service.TransitionNotifier
	if cfg.Kafka.Enabled {
		notifier = notify.NewKafkaNotifier(cfg.Kafka, log)
	} else {
		notifier = notify.NewLogNotifier(log)
	}
	defer notifier.Close()

	var cache application.ResultCache
	if cfg.Redis.Enabled {
		rc := redcache.NewResultCache(&cfg.Redis, log)
		defer rc.Close()
		cache = rc
	}

	baseline := marketdata.NewBaselineProvider(metricRepo, log)
	vectorIndex := search.NewStubUpdater(log)

	grading := application.NewGradingService(cfg.Grading, cfg.Simulation.IRRTarget,
		propertyRepo, resultRepo, historyRepo, tx, notifier, metrics, log)
	simulation := application.NewSimulationService(cfg.Simulation,
		propertyRepo, resultRepo, tx, grading, baseline, vectorIndex, cache, metrics, log)
	export := application.NewExportService(cfg.Export, resultRepo, log)

	riskHandler := handlers.NewRiskHandler(simulation, grading, export, log)
	healthHandler := handlers.NewHealthHandler(db)

	r := router.NewRouter(cfg, log, tracing.Tracer(), healthHandler, riskHandler)
	r.SetupRoutes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info(ctx, "shutting down", logger.Fields{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return r.Stop(shutdownCtx)
}
