package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperengineering/abacus/internal/frontend"
	"github.com/hyperengineering/abacus/pkg/client"
	"github.com/spf13/cobra"
)

var (
	frontendAddress    string
	frontendBackendURL string
)

var frontendCmd = &cobra.Command{
	Use:   "frontend",
	Short: "Serve the calculator web page",
	Long:  "Serves a page with two sliders and proxies its GET /calculate calls to the server.",
	Args:  cobra.NoArgs,
	RunE:  runFrontend,
}

func init() {
	frontendCmd.Flags().StringVar(&frontendAddress, "address", "",
		"Listen address (overrides frontend.address)")
	frontendCmd.Flags().StringVar(&frontendBackendURL, "backend", "",
		"Server URL (overrides frontend.backend_url)")
}

func runFrontend(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if frontendAddress != "" {
		cfg.Frontend.Address = frontendAddress
	}
	if frontendBackendURL != "" {
		cfg.Frontend.BackendURL = frontendBackendURL
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))
	slog.Info("frontend configured", "backend", cfg.Frontend.BackendURL)

	backend := client.New(cfg.Frontend.BackendURL, cfg.Frontend.RequestTimeout.Std())
	srv := &http.Server{
		Addr:         cfg.Frontend.Address,
		Handler:      frontend.NewPageRouter(backend),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	return serveAll(ctx, cfg.Server.ShutdownTimeout.Std(), []namedServer{{
		name:   "frontend",
		addr:   cfg.Frontend.Address,
		server: srv,
	}})
}
