package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"artisanverse/internal/api"
	"artisanverse/internal/config"
	"artisanverse/internal/idempotency"
	"artisanverse/internal/logging"
	"artisanverse/internal/metrics"
	"artisanverse/internal/ratelimit"
	"artisanverse/internal/recordstore"
	"artisanverse/internal/seed"
	"artisanverse/internal/store/backends"
)

var logger = logging.For("main")

const cleanupInterval = time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "artisanverse: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run parses flags, opens the store and either serves the API or runs a
// single collection command.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("artisanverse", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	dataDir := fs.String("data-dir", "", "data directory (overrides config)")
	listen := fs.String("listen", "", "HTTP listen address (overrides config)")
	backend := fs.String("backend", "", "storage backend: json, bolt, sqlite, postgres, s3, memory (overrides config)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: artisanverse [flags] [command [args...]]")
		fmt.Fprintln(fs.Output(), "\ncommands:")
		printCommands(fs.Output())
		fmt.Fprintln(fs.Output(), "\nflags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// CLI flags override config file values
	if *dataDir != "" {
		cfg.Store.DataDir = *dataDir
	}
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logging.Init(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	var m *metrics.Metrics
	if fs.NArg() == 0 {
		m = metrics.New()
	}
	s, closeStore, err := openStore(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer closeStore()

	if fs.NArg() > 0 {
		return runCommand(ctx, s, fs.Args(), stdout)
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, ln, cfg, s, m)
}

// openStore opens the configured backend and loads every collection.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*recordstore.Store, func(), error) {
	b, err := backends.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}

	seeds := seed.Defaults()
	if cfg.Store.SeedFile != "" {
		if seeds, err = seed.LoadFile(config.ExpandHome(cfg.Store.SeedFile)); err != nil {
			_ = b.Close()
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
	}

	opts := []recordstore.Option{
		recordstore.WithSeeds(seeds),
		recordstore.WithPatchMode(recordstore.PatchMode(strings.ToLower(strings.TrimSpace(cfg.Store.PatchMode)))),
	}
	if len(cfg.Store.Collections) > 0 {
		opts = append(opts, recordstore.WithCollections(cfg.Store.Collections...))
	}
	if m != nil {
		opts = append(opts, recordstore.WithObserver(m))
	}

	s := recordstore.New(b, opts...)
	s.Initialize(ctx)
	logger.Info("store ready", "backend", cfg.Store.Backend, "collections", len(s.Collections()))

	return s, func() {
		if err := b.Close(); err != nil {
			logger.Warn("closing store failed", "err", err)
		}
	}, nil
}

// serve runs the HTTP API on ln until ctx is cancelled, then drains
// in-flight requests for at most the configured shutdown timeout.
func serve(ctx context.Context, ln net.Listener, cfg *config.Config, s *recordstore.Store, m *metrics.Metrics) error {
	var limiter *ratelimit.Limiter
	if cfg.HTTP.RateLimit > 0 {
		limiter = ratelimit.New(cfg.HTTP.RateLimit)
	}

	replays := idempotency.New(idempotency.DefaultTTL)

	srv := &http.Server{
		Handler: api.New(s, api.Options{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RateLimiter:    limiter,
			Metrics:        m,
			MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
			Idempotency:    replays,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP API listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		replays.CleanupLoop(gctx, cleanupInterval)
		return nil
	})
	if limiter != nil {
		g.Go(func() error {
			limiter.CleanupLoop(gctx, cleanupInterval)
			return nil
		})
	}
	return g.Wait()
}
