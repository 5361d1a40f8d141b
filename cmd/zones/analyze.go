package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/infrastructure/csvfeed"
	"github.com/vitos/crypto_trade_zones/internal/infrastructure/exchange"
	"github.com/vitos/crypto_trade_zones/internal/infrastructure/storage"
	"github.com/vitos/crypto_trade_zones/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the zone engine once and print the zone table and the latest row",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("symbol", "", "symbol to analyze (default: first configured symbol)")
	analyzeCmd.Flags().String("interval", "", "kline interval (default: analysis.interval)")
	analyzeCmd.Flags().Int("limit", 0, "number of candles (default: analysis.limit)")
	analyzeCmd.Flags().String("csv", "", "read candles from a CSV file instead of the exchange")
	analyzeCmd.Flags().String("timeframe", "", "engine timeframe label (default: derived from the interval)")
	analyzeCmd.Flags().Bool("save", false, "store the run in the database")
}

type analyzeOutput struct {
	RunID    string               `json:"run_id"`
	Symbol   string               `json:"symbol"`
	Interval string               `json:"interval"`
	Candles  int                  `json:"candles"`
	Tuning   domain.Tuning        `json:"tuning"`
	Zones    []domain.Zone        `json:"zones"`
	Latest   domain.AssignmentRow `json:"latest"`
	Signals  []domain.Signal      `json:"signals"`
	Warnings []string             `json:"warnings,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	symbol, _ := cmd.Flags().GetString("symbol")
	interval, _ := cmd.Flags().GetString("interval")
	limit, _ := cmd.Flags().GetInt("limit")
	csvPath, _ := cmd.Flags().GetString("csv")
	timeframe, _ := cmd.Flags().GetString("timeframe")
	save, _ := cmd.Flags().GetBool("save")

	if symbol == "" {
		symbol = cfg.Analysis.Symbols[0]
	}
	if interval == "" {
		interval = cfg.Analysis.Interval
	}
	if limit <= 0 {
		limit = cfg.Analysis.Limit
	}

	var source domain.CandleSource
	mapper := exchange.TimeframeForInterval
	if csvPath != "" {
		source = csvfeed.NewSource(csvPath)
		if timeframe == "" {
			timeframe = cfg.Engine.Timeframe
		}
	} else {
		source = exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, cfg.Exchange.Category)
	}
	if timeframe != "" {
		mapper = func(string) string { return timeframe }
	}

	var repo domain.ZoneRepository
	if save {
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()
		repo = store
	}

	svc := usecase.NewZoneService(source, repo, cfg.Engine, log)
	svc.SetTimeframeMapper(mapper)

	run, err := svc.Analyze(cmd.Context(), usecase.AnalyzeRequest{Symbol: symbol, Interval: interval, Limit: limit})
	if err != nil {
		return err
	}

	latest, _ := run.Analysis.Last()
	out := analyzeOutput{
		RunID:    run.ID,
		Symbol:   run.Symbol,
		Interval: run.Interval,
		Candles:  run.Candles,
		Tuning:   run.Analysis.Tuning,
		Zones:    run.Analysis.Zones,
		Latest:   latest,
		Signals:  run.Signals,
		Warnings: run.Analysis.Warnings,
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
