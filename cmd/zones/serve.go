package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/crypto_trade_zones/internal/infrastructure/exchange"
	"github.com/vitos/crypto_trade_zones/internal/infrastructure/storage"
	"github.com/vitos/crypto_trade_zones/internal/usecase"
	"github.com/vitos/crypto_trade_zones/internal/web"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh zones for the configured symbols and serve them over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (default: server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to init sqlite: %w", err)
	}
	defer store.Close()

	bybit := exchange.NewBybitAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.RESTEndpoint, cfg.Exchange.Category)

	svc := usecase.NewZoneService(bybit, store, cfg.Engine, log)
	svc.SetTimeframeMapper(exchange.TimeframeForInterval)
	svc.SetConcurrency(cfg.Analysis.Concurrency)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.Run(ctx, cfg.Analysis.Symbols, cfg.Analysis.Interval, cfg.Analysis.Limit,
		time.Duration(cfg.Analysis.RefreshMs)*time.Millisecond)

	server := web.NewServer(port, svc, cfg.Analysis.Interval, cfg.Analysis.Limit,
		time.Duration(cfg.Analysis.WSPollMs)*time.Millisecond, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	return nil
}
