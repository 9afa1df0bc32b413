// Command staticd is a production-ready static file server built on the
// github.com/staticfs/staticd/fileserver engine. It owns everything the
// engine deliberately leaves out: flag/config parsing, logger construction,
// listener binding, and graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/staticfs/staticd/fileserver"
	"github.com/staticfs/staticd/internal/metrics"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath     string
		listenAddr     string
		metricsAddr    string
		root           string
		mountPrefix    string
		followLinks    bool
		showIndex      bool
		hideEntry      bool
		cacheSecs      uint32
		chunkSize      int
		workers        int
		logLevel       string
		rateLimitRPS   float64
		rateLimitBurst int
	)

	cmd := &cobra.Command{
		Use:   "staticd",
		Short: "A production-ready static file server",
		Long: `staticd serves a directory tree over HTTP with conditional-request
and byte-range support, bounded-memory chunked streaming, and an optional
directory index.

Configuration may come from command-line flags, a --config TOML file, or
both; flags always take precedence over the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}
			fc = applyFlagOverrides(cmd, fc, fileConfig{
				ListenAddr:  listenAddr,
				MetricsAddr: metricsAddr,
				Root:        root,
				MountPrefix: mountPrefix,
				FollowLinks: followLinks,
				ShowIndex:   showIndex,
				HideEntry:   hideEntry,
				CacheSecs:   cacheSecs,
				ChunkSize:   chunkSize,
				Workers:     workers,
				LogLevel:    logLevel,
			})

			return run(fc, rateLimitRPS, rateLimitBurst)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a TOML config file")
	flags.StringVar(&listenAddr, "listen", ":8080", "address to bind the HTTP listener")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "address to bind a Prometheus /metrics listener (disabled if empty)")
	flags.StringVar(&root, "root", "", "filesystem directory to serve (required)")
	flags.StringVar(&mountPrefix, "mount-prefix", "", "URL path prefix Root is exposed under")
	flags.BoolVar(&followLinks, "follow-links", false, "follow symlinks when resolving metadata")
	flags.BoolVar(&showIndex, "show-index", false, "render an HTML directory listing instead of an empty-body probe")
	flags.BoolVar(&hideEntry, "hide-dotfiles", true, "omit dotfile-named entries from directory listings")
	flags.Uint32Var(&cacheSecs, "cache-secs", 0, "Cache-Control max-age in seconds; 0 disables caching and 304s")
	flags.IntVar(&chunkSize, "chunk-size", fileserver.DefaultChunkSize, "target bytes per streamed body chunk")
	flags.IntVar(&workers, "workers", 0, "blocking-read worker concurrency (0 = runtime.NumCPU()+1)")
	flags.StringVar(&logLevel, "log-level", "info", "zap log level: debug, info, warn, error")
	flags.Float64Var(&rateLimitRPS, "rate-limit", 0, "requests/sec token-bucket limit across all clients (0 disables)")
	flags.IntVar(&rateLimitBurst, "rate-limit-burst", 20, "token-bucket burst size when --rate-limit is set")

	return cmd
}

// applyFlagOverrides layers flagVals over a file-loaded fileConfig: any flag
// the user explicitly set on the command line wins, otherwise the file's
// value (if any) is kept.
func applyFlagOverrides(cmd *cobra.Command, file, flagVals fileConfig) fileConfig {
	changed := cmd.Flags().Changed
	result := file

	setIfChanged := func(name string, apply func()) {
		if changed(name) {
			apply()
		}
	}
	setIfChanged("listen", func() { result.ListenAddr = flagVals.ListenAddr })
	setIfChanged("metrics-addr", func() { result.MetricsAddr = flagVals.MetricsAddr })
	setIfChanged("root", func() { result.Root = flagVals.Root })
	setIfChanged("mount-prefix", func() { result.MountPrefix = flagVals.MountPrefix })
	setIfChanged("follow-links", func() { result.FollowLinks = flagVals.FollowLinks })
	setIfChanged("show-index", func() { result.ShowIndex = flagVals.ShowIndex })
	setIfChanged("hide-dotfiles", func() { result.HideEntry = flagVals.HideEntry })
	setIfChanged("cache-secs", func() { result.CacheSecs = flagVals.CacheSecs })
	setIfChanged("chunk-size", func() { result.ChunkSize = flagVals.ChunkSize })
	setIfChanged("workers", func() { result.Workers = flagVals.Workers })
	setIfChanged("log-level", func() { result.LogLevel = flagVals.LogLevel })

	// Flags carry sensible defaults (":8080", "info", DefaultChunkSize)
	// even when the user didn't pass them explicitly; fall back to those
	// defaults when the file left the same field unset too.
	if result.ListenAddr == "" {
		result.ListenAddr = flagVals.ListenAddr
	}
	if result.LogLevel == "" {
		result.LogLevel = flagVals.LogLevel
	}
	if result.ChunkSize == 0 {
		result.ChunkSize = flagVals.ChunkSize
	}
	return result
}

func run(fc fileConfig, rateLimitRPS float64, rateLimitBurst int) error {
	logger, err := newLogger(fc.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	root, err := resolveRoot(fc.Root)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	// Pass a nil pool: fileserver.New builds a workerpool.Semaphore sized
	// from Config.WorkerConcurrency (defaulting to runtime.NumCPU()+1 when
	// unset), which keeps the default-resolution logic in one place.
	engine := fileserver.New(fc.engineConfig(root), nil, nil, m, logger)

	router := chi.NewRouter()
	mountAt(router, fc.MountPrefix, engine)

	server := &http.Server{
		Addr:              fc.ListenAddr,
		Handler:           withRequestID(accessLog(logger, rateLimit(router, rateLimitRPS, rateLimitBurst))),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    10 * 1024,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving static files",
			zap.String("addr", fc.ListenAddr),
			zap.String("root", root),
			zap.String("mount_prefix", fc.MountPrefix),
		)
		errCh <- server.ListenAndServe()
	}()

	if fc.MetricsAddr != "" {
		go serveMetrics(logger, fc.MetricsAddr, reg)
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}

func mountAt(router chi.Router, prefix string, h http.Handler) {
	if prefix == "" || prefix == "/" {
		router.Handle("/*", h)
		return
	}
	router.Handle(prefix+"*", h)
}

func serveMetrics(logger *zap.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return cfg.Build()
}
