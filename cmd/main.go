package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/mcreate/internal/adapters/http/api"
	"github.com/okian/mcreate/internal/adapters/http/site"
	"github.com/okian/mcreate/internal/adapters/http/swagger"
	"github.com/okian/mcreate/internal/adapters/nhtsa"
	app "github.com/okian/mcreate/internal/app"
	"github.com/okian/mcreate/internal/config"
	"github.com/okian/mcreate/pkg/logger"
	"github.com/okian/mcreate/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6

	// writeSlack leaves room to encode and write the body once the
	// response deadline has cut upstream work short.
	writeSlack = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(newUpstream(cfg),
		app.WithLogger(loggerInstance),
		app.WithCrashConcurrency(cfg.CrashConcurrency),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("upstream", cfg.UpstreamBaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newUpstream builds the safety-ratings client from cfg.
func newUpstream(cfg *config.Config) *nhtsa.Client {
	return nhtsa.NewClient(
		nhtsa.WithBaseURL(cfg.UpstreamBaseURL),
		nhtsa.WithTimeout(time.Duration(cfg.UpstreamTimeoutMS)*time.Millisecond),
		nhtsa.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
	)
}

// newHandler registers every route and wraps the mux for tracing.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()

	if cfg.DocsEnabled {
		swagger.Register(ctx, mux)
		site.Register(ctx, mux)
	}

	api.NewServer(svc, svc, api.WithResponseDeadline(responseDeadline(cfg))).Register(ctx, mux)

	return otelhttp.NewHandler(mux, "mcreate")
}

// responseDeadline bounds the upstream work of one vehicle request. Crash
// lookups that have not finished by then, whether queued behind the
// concurrency cap or the rate limiter, are dropped.
func responseDeadline(cfg *config.Config) time.Duration {
	if cfg.UpstreamTimeoutMS <= 0 {
		return 0
	}
	return 2 * time.Duration(cfg.UpstreamTimeoutMS) * time.Millisecond
}

// writeTimeout must outlast responseDeadline so the partial result is written.
func writeTimeout(cfg *config.Config) time.Duration {
	d := responseDeadline(cfg)
	if d == 0 {
		return 0
	}
	return d + writeSlack
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
