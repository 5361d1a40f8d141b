package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/infrastructure/storage"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().String("symbol", "", "only runs for this symbol")
	runsCmd.Flags().Int("limit", 20, "maximum number of runs")
}

func runRuns(cmd *cobra.Command, args []string) error {
	symbol, _ := cmd.Flags().GetString("symbol")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), strings.ToUpper(symbol), limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tINTERVAL\tTF\tCANDLES\tZONES\tSUPPORT\tRESISTANCE\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.ID, r.Symbol, r.Interval, r.Timeframe, r.Candles, r.Zones,
			formatLevel(r.NearestSupport), formatLevel(r.NearestResistance),
			r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func formatLevel(v domain.NullFloat) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%g", v.Float64)
}
