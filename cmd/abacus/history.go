package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/hyperengineering/abacus/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyDBPath     string
	historyJSONOutput bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored calculations",
	Long:  "Reads the calculation store directly, without running the server.",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBPath, "db", "",
		"Database path (overrides config and ABACUS_DB_PATH)")
	historyCmd.Flags().BoolVar(&historyJSONOutput, "json", false,
		"Output in JSON format")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path := historyDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		path = cfg.Database.Path
	}

	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list calculations: %w", err)
	}

	if historyJSONOutput {
		items := make([]map[string]any, len(records))
		for i, r := range records {
			items[i] = map[string]any{
				"id":             r.ID,
				"num1":           r.Num1,
				"num2":           r.Num2,
				"addition":       r.Addition,
				"subtraction":    r.Subtraction,
				"multiplication": r.Multiplication,
				"division":       r.Division,
				"created_at":     r.CreatedAt.Format(time.RFC3339),
			}
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"calculations": items,
			"total":        len(items),
		})
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No calculations found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNUM1\tNUM2\tADD\tSUB\tMUL\tDIV\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			formatNumber(float64(r.Num1)),
			formatNumber(float64(r.Num2)),
			formatNumber(float64(r.Addition)),
			formatNumber(float64(r.Subtraction)),
			formatNumber(float64(r.Multiplication)),
			r.Division,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "-"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
