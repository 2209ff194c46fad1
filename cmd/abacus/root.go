package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hyperengineering/abacus/internal/api"
	"github.com/hyperengineering/abacus/internal/calc"
	"github.com/hyperengineering/abacus/internal/config"
	"github.com/hyperengineering/abacus/internal/metrics"
	"github.com/hyperengineering/abacus/internal/rawhttp"
	"github.com/hyperengineering/abacus/internal/store"
	"github.com/hyperengineering/abacus/internal/worker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

// configPath is the global --config flag. Empty means ABACUS_CONFIG_PATH or
// the default path, where a missing file is allowed.
var configPath string

var rootCmd = &cobra.Command{
	Use:          "abacus",
	Short:        "Abacus - arithmetic calculation service",
	Long:         "Serves GET /calculate and GET /history, persisting every calculation to SQLite.",
	Version:      Version,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (overrides ABACUS_CONFIG_PATH; the file must exist)")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(frontendCmd)
	rootCmd.AddCommand(consoleCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	return runServer(ctx, cfg)
}

// runServer opens the store, serves until ctx is done or a listener fails,
// then shuts down: listeners first, then workers, then the store.
func runServer(ctx context.Context, cfg *config.Config) error {
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	svc := calc.NewService(db, calc.Options{
		StrictInput:            cfg.Calculate.StrictInput,
		EnsureSchemaPerRequest: cfg.Calculate.EnsureSchemaPerRequest,
	})

	listeners := []namedServer{{
		name:   "calculate",
		addr:   cfg.Server.Address,
		server: newServer(cfg, svc),
	}}
	slog.Info("router initialized", "transport", cfg.Server.Transport)

	if cfg.Metrics.Address != "" {
		listeners = append(listeners, namedServer{
			name: "metrics",
			addr: cfg.Metrics.Address,
			server: &http.Server{
				Addr:              cfg.Metrics.Address,
				Handler:           metrics.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			},
		})
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	var wg sync.WaitGroup
	stats := worker.NewStatsWorker(db, metrics.RecordsStored, cfg.Worker.StatsInterval.Std())
	startWorker(workerCtx, &wg, "stats", stats.Run)

	serveErr := serveAll(ctx, cfg.Server.ShutdownTimeout.Std(), listeners)

	stopWorkers()
	wg.Wait()

	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	if serveErr != nil {
		slog.Error("server error", "error", serveErr)
		return serveErr
	}
	slog.Info("shutdown complete")
	return nil
}

// server is implemented by *http.Server and *rawhttp.Server.
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type namedServer struct {
	name   string
	addr   string
	server server
}

// newServer builds the calculation listener for the configured transport.
func newServer(cfg *config.Config, svc *calc.Service) server {
	if cfg.Server.Transport == config.TransportRaw {
		return &rawhttp.Server{
			Addr:         cfg.Server.Address,
			Service:      svc,
			ReadTimeout:  cfg.Server.ReadTimeout.Std(),
			WriteTimeout: cfg.Server.WriteTimeout.Std(),
		}
	}
	return &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(api.NewHandler(svc)),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}
}

// serveAll runs every listener until ctx is done or one of them fails, then
// shuts all of them down within timeout.
func serveAll(ctx context.Context, timeout time.Duration, listeners []namedServer) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, l := range listeners {
		l := l // per-iteration copy; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			slog.Info("server starting", "server", l.name, "address", l.addr)
			// ErrServerClosed is the expected result of Shutdown.
			if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", l.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		for _, l := range listeners {
			if err := l.server.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("%s shutdown: %w", l.name, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// loadConfig honours --config when set.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
