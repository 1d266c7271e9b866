package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oryem/appraisal-backend/internal/adapter/export"
	grpcadapter "github.com/oryem/appraisal-backend/internal/adapter/grpc"
	"github.com/oryem/appraisal-backend/internal/adapter/repository/memory"
	"github.com/oryem/appraisal-backend/internal/adapter/repository/postgres"
	"github.com/oryem/appraisal-backend/internal/config"
	"github.com/oryem/appraisal-backend/internal/domain"
	"github.com/oryem/appraisal-backend/internal/logger"
	"github.com/oryem/appraisal-backend/internal/usecase/analysis"
	"github.com/oryem/appraisal-backend/internal/usecase/comparison"
	"github.com/oryem/appraisal-backend/internal/usecase/simulation"
)

const (
	dbConnectAttempts = 5
	dbConnectDelay    = 2 * time.Second
)

type repositories struct {
	breakdowns  domain.BreakdownRepository
	estimations domain.EstimationRepository
	simulations domain.SimulationRepository
	comparables domain.ComparableRepository
	close       func() error
}

func main() {
	// 1. Load configuration and logger
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}

	// 2. Initialize Repositories
	ctx := context.Background()
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}
	defer func() {
		if err := repos.close(); err != nil {
			log.WithError(err).Warn("Failed to close storage")
		}
	}()

	// 3. Initialize Services (Use Cases)
	analysisService := analysis.NewAnalysisService(repos.breakdowns, repos.estimations, export.NewSynthesisWorkbook())
	simulationService := simulation.NewSimulationService(repos.simulations)
	comparisonService := comparison.NewComparisonService(repos.comparables)

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := grpcadapter.NewMetrics(registry)

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.MetricsAddr).Info("Metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to serve metrics")
		}
	}()

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(grpcadapter.ServerOptions(log, metrics, cfg.APIToken)...)
	grpcadapter.RegisterAppraisalServiceServer(grpcServer, grpcadapter.NewServer(analysisService, simulationService, comparisonService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatalf("Failed to listen on %s", cfg.GRPCAddr)
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.GRPCAddr, "storage": cfg.Storage}).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Fatal("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, grpcServer, metricsServer)
}

// openRepositories builds the repositories for the configured storage backend
func openRepositories(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*repositories, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			breakdowns:  memory.NewBreakdownRepository(store),
			estimations: memory.NewEstimationRepository(store),
			simulations: memory.NewSimulationRepository(store),
			comparables: memory.NewComparableRepository(store),
			close:       func() error { return nil },
		}, nil
	}

	db, err := connectWithRetry(cfg.DBConnectionString(), log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Database schema is up to date")

	return &repositories{
		breakdowns:  postgres.NewBreakdownRepository(db),
		estimations: postgres.NewEstimationRepository(db),
		simulations: postgres.NewSimulationRepository(db),
		comparables: postgres.NewComparableRepository(db),
		close:       db.Close,
	}, nil
}

// connectWithRetry gives Postgres time to come up when started alongside the server
func connectWithRetry(connStr string, log *logrus.Logger) (*postgres.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= dbConnectAttempts; attempt++ {
		db, err := postgres.NewDB(connStr)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.WithError(err).WithField("attempt", attempt).Warn("Database not ready")
		time.Sleep(dbConnectDelay)
	}
	return nil, lastErr
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(log *logrus.Logger, grpcServer *grpclib.Server, metricsServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("Metrics server shutdown failed")
	}

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
}
