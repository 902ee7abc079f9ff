package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/joho/godotenv"

	"swiggy-dashboard/internal/config"
	"swiggy-dashboard/internal/middleware"
	"swiggy-dashboard/internal/observability"
	"swiggy-dashboard/internal/server"
	"swiggy-dashboard/internal/services"
	"swiggy-dashboard/internal/store"
	"swiggy-dashboard/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 2 * time.Minute
	cacheMaxAge    = "public, max-age=300"
)

// Template handler functions that can access the template functions
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	metrics := observability.NewMetrics()

	snapshots, err := store.Open(cfg.Dataset.SnapshotDB)
	if err != nil {
		// The snapshot store only saves a restart from reprocessing; run without it.
		logger.Warn("snapshot store unavailable", "error", err)
		snapshots = nil
	}

	analytics := services.NewAnalytics()
	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	if err := loadDataset(ctx, logger, metrics, snapshots, analytics, cfg.Dataset.CSVFile); err != nil {
		logger.Error("failed to load order data", "error", err)
		os.Exit(1)
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
		Metrics:   metrics.Handler(),
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.Metrics(metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		logger.Error("failed to build compression adapter", "error", err)
		os.Exit(1)
	}
	handler = compress(handler)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		if snapshots != nil {
			return snapshots.Close()
		}
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

// loadDataset restores a fresh snapshot when one exists, otherwise processes
// the CSV and persists the result.
func loadDataset(ctx context.Context, logger *slog.Logger, metrics *observability.Metrics,
	snapshots *store.SnapshotStore, analytics *services.Analytics, csvFile string) error {

	if snapshots != nil {
		if data, err := snapshots.LoadFresh(ctx, csvFile); err == nil {
			analytics.RestoreSnapshot(data)
			logger.Info("restored aggregates from snapshot", "records", data.RecordCount)
			return nil
		} else if !errors.Is(err, store.ErrNoSnapshot) {
			logger.Warn("snapshot lookup failed", "error", err)
		}
	}

	start := time.Now()
	if err := analytics.LoadFromCSV(ctx, csvFile); err != nil {
		return err
	}
	logger.Info("order data loaded", "duration", time.Since(start))

	report := analytics.Report()
	drops := make(map[string]int64, len(report.ParseDrops))
	for reason, n := range report.ParseDrops {
		drops[string(reason)] = n
	}
	drops["excluded_date"] = report.Clean.ExcludedDate
	drops["duplicate"] = report.Clean.Duplicates
	drops["price_outlier"] = report.Clean.PriceOutliers
	drops["rating_out_of_range"] = report.Clean.RatingOutOfRange
	drops["rating_count_outlier"] = report.Clean.RatingCountOutliers
	metrics.ObserveLoad(int64(report.Clean.Output), drops, report.Duration)

	if snapshots != nil {
		if err := snapshots.Save(ctx, csvFile, analytics.Precomputed()); err != nil {
			logger.Warn("failed to save snapshot", "error", err)
		}
	}
	return nil
}
