package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/domain/flock"
	"github.com/oshokin/goose-belt/internal/logger"
	"github.com/oshokin/goose-belt/internal/metrics"
	repository "github.com/oshokin/goose-belt/internal/repository/flock"
	"github.com/oshokin/goose-belt/internal/service/device"
	"github.com/oshokin/goose-belt/internal/service/notifier"
	"github.com/oshokin/goose-belt/internal/service/scheduler"
	"github.com/oshokin/goose-belt/internal/service/store"
	"github.com/oshokin/goose-belt/internal/service/tracker"
	"github.com/oshokin/goose-belt/internal/version"
)

// Options controls the gbelt-agent process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// FlockPath overrides the flock configuration file location.
	FlockPath string
}

const (
	// metricsPath is where the Prometheus handler is mounted.
	metricsPath = "/metrics"
	// metricsReadHeaderTimeout bounds slow metric scrapers.
	metricsReadHeaderTimeout = 5 * time.Second
	// metricsShutdownTimeout bounds the metrics server shutdown.
	metricsShutdownTimeout = 5 * time.Second
)

// Run starts polling the flock and blocks until ctx is canceled.
// An unreadable settings file or flock file is returned as an error.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "gbelt-agent")

	// Load settings first, credentials from the environment win.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	config.ApplyEnv(settings, os.LookupEnv)

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	} else {
		logger.WarnKV(ctx, "Unknown log level, keeping default", "log_level", settings.LogLevel)
	}

	// Use the flock file from settings unless overridden by command line option.
	flockPath, err := config.ResolveFlockFile(settings, opts.FlockPath)
	if err != nil {
		return fmt.Errorf("resolve flock file: %w", err)
	}

	collectors := metrics.New()

	// Open the store; an unparsable file stops the agent here.
	st, err := store.Open(ctx,
		repository.NewFileRepository(flockPath),
		flock.Default(),
		store.WithReloadObserver(collectors),
	)
	if err != nil {
		return fmt.Errorf("open flock configuration: %w", err)
	}

	if settings.GatewayKey == "" || settings.Phone == "" {
		logger.WarnKV(ctx, "Gateway credentials are incomplete, notifications will likely be rejected",
			"key_env", config.EnvGatewayKey,
			"phone_env", config.EnvPhone,
		)
	}

	gateway := notifier.NewGateway(settings.GatewayURL, settings.GatewayKey, settings.Phone, settings.Timeout)
	notify := notifier.New(gateway,
		notifier.WithConsole(notifier.StdoutSink(settings.Production)),
		notifier.WithObserver(collectors),
	)

	sched := scheduler.New(st,
		device.NewClient(device.WithCallTimeout(settings.Timeout)),
		tracker.New(),
		notify,
		scheduler.WithMetrics(collectors),
		scheduler.WithMaxConcurrency(settings.MaxConcurrency),
	)

	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup

	// Background workers stop with ctx and are awaited before returning.
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Go(func() {
		if watchErr := st.Watch(ctx); watchErr != nil {
			logger.ErrorKV(ctx, "Live reload disabled", "error", watchErr)
		}
	})

	if settings.MetricsAddress != "" {
		lc := net.ListenConfig{}

		lis, listenErr := lc.Listen(ctx, "tcp", settings.MetricsAddress)
		if listenErr != nil {
			return fmt.Errorf("listen on %s: %w", settings.MetricsAddress, listenErr)
		}

		wg.Go(func() {
			if serveErr := serveMetrics(ctx, lis, collectors.Handler()); serveErr != nil {
				logger.ErrorKV(ctx, "Metrics server failed", "error", serveErr)
			}
		})
	}

	cfg := st.Current()
	logger.InfoKV(ctx, "Agent started",
		"version", version.Short(),
		"log_level", logger.Level().String(),
		"flock_file", flockPath,
		"pollrate", cfg.PollRate,
		"devices", len(cfg.Devices),
		"metrics_addr", settings.MetricsAddress,
	)

	return sched.Run(ctx)
}

// serveMetrics serves the Prometheus handler on lis until ctx is done.
func serveMetrics(ctx context.Context, lis net.Listener, handler http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	// Done channel is closed after Shutdown finishes.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.InfoKV(ctx, "Metrics endpoint listening", "address", lis.Addr().String(), "path", metricsPath)

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}

	<-done

	return nil
}
