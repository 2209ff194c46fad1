package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hyperengineering/abacus/internal/frontend"
	"github.com/hyperengineering/abacus/pkg/client"
	"github.com/spf13/cobra"
)

var consoleBackendURL string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive terminal calculator",
	Long:  "Reads \"NUM1 NUM2\" lines and prints the server's results as they arrive.",
	Args:  cobra.NoArgs,
	RunE:  runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleBackendURL, "backend", "",
		"Server URL (overrides frontend.backend_url)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	backend := cfg.Frontend.BackendURL
	if consoleBackendURL != "" {
		backend = consoleBackendURL
	}

	c := frontend.NewConsole(client.New(backend, cfg.Frontend.RequestTimeout.Std()))
	err = c.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
