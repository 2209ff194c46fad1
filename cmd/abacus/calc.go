package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hyperengineering/abacus/pkg/client"
	"github.com/spf13/cobra"
)

var (
	calcBackendURL string
	calcTimeout    time.Duration
)

var calcCmd = &cobra.Command{
	Use:   "calc NUM1 NUM2",
	Short: "Ask a running server to calculate",
	Long: "Calls GET /calculate on a running server and prints the JSON result.\n" +
		"Use -- before negative operands: abacus calc -- -3 4",
	Args: cobra.ExactArgs(2),
	RunE: runCalc,
}

func init() {
	calcCmd.Flags().StringVar(&calcBackendURL, "backend", "",
		"Server URL (overrides frontend.backend_url)")
	calcCmd.Flags().DurationVar(&calcTimeout, "timeout", 10*time.Second,
		"Request timeout")
}

func runCalc(cmd *cobra.Command, args []string) error {
	num1, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("NUM1 %q: not a number", args[0])
	}
	num2, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("NUM2 %q: not a number", args[1])
	}

	backend, err := backendURL(calcBackendURL)
	if err != nil {
		return err
	}

	result, err := client.New(backend, calcTimeout).Calculate(cmd.Context(), num1, num2)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

// backendURL returns override when set, otherwise frontend.backend_url.
func backendURL(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Frontend.BackendURL, nil
}
