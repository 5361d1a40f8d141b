package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/indicators"
	"github.com/vitos/crypto_trade_zones/internal/zones"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidRequest = errors.New("invalid analyze request")
	ErrNoRepository   = errors.New("zone service has no repository")
)

type AnalyzeRequest struct {
	Symbol   string
	Interval string
	Limit    int
}

// ZoneService fetches candles, runs the zone engine and persists the result.
// Every invocation builds its own series; runs share no mutable state besides
// the per-timeframe engine cache.
type ZoneService struct {
	source       domain.CandleSource
	repo         domain.ZoneRepository
	base         *zones.Engine
	logger       *zap.Logger
	timeframeFor func(interval string) string
	concurrency  int
	timeNow      func() time.Time // For testing

	mu      sync.Mutex
	engines map[string]*zones.Engine // timeframe -> engine
}

// NewZoneService wires the engine with a 14-period ATR. repo may be nil, in
// which case runs are returned but not stored.
func NewZoneService(source domain.CandleSource, repo domain.ZoneRepository, opts zones.Options, logger *zap.Logger) *ZoneService {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := zones.NewEngine(opts, indicators.ATR(indicators.DefaultATRPeriod), logger.Named("engine"))
	logger.Debug("Zone engine ready", zap.Any("options", base.Options()))
	return &ZoneService{
		source:       source,
		repo:         repo,
		base:         base,
		logger:       logger,
		timeframeFor: func(interval string) string { return interval },
		concurrency:  4,
		timeNow:      time.Now,
		engines:      make(map[string]*zones.Engine),
	}
}

// SetTimeframeMapper sets how a source interval becomes an engine timeframe
// label.
func (s *ZoneService) SetTimeframeMapper(fn func(interval string) string) {
	if fn != nil {
		s.timeframeFor = fn
	}
}

func (s *ZoneService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

func (s *ZoneService) engineFor(tf string) *zones.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.engines[tf]; ok {
		return e
	}
	e := s.base.WithTimeframe(tf)
	s.engines[tf] = e
	return e
}

func (s *ZoneService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.ZoneRun, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if req.Interval == "" {
		return nil, fmt.Errorf("%w: interval is required", ErrInvalidRequest)
	}

	candles, err := s.source.GetCandles(ctx, symbol, req.Interval, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	series := domain.SeriesFromCandles(candles)
	analysis, err := s.engineFor(s.timeframeFor(req.Interval)).Analyze(series)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", symbol, req.Interval, err)
	}

	run := &domain.ZoneRun{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Interval:  req.Interval,
		Candles:   len(candles),
		Analysis:  analysis,
		CreatedAt: s.timeNow().UTC(),
	}
	if last, ok := analysis.Last(); ok {
		run.Signals = StructureSignals(last, indicators.MomentumAt(series))
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run %s: %w", run.ID, err)
		}
	}

	last, _ := analysis.Last()
	s.logger.Info("Zones analyzed",
		zap.String("symbol", symbol),
		zap.String("interval", req.Interval),
		zap.String("timeframe", analysis.Tuning.Timeframe),
		zap.Int("candles", run.Candles),
		zap.Int("zones", len(analysis.Zones)),
		zap.Int("signals", len(run.Signals)),
		zap.Any("nearest_support", last.NearestSupport),
		zap.Any("nearest_resistance", last.NearestResistance),
	)
	for _, w := range analysis.Warnings {
		s.logger.Debug("Analysis warning", zap.String("symbol", symbol), zap.String("warning", w))
	}

	return run, nil
}

// AnalyzeMany runs each distinct symbol in parallel. A failing symbol does
// not stop the others; the runs that succeeded are returned along with the
// combined error.
func (s *ZoneService) AnalyzeMany(ctx context.Context, symbols []string, interval string, limit int) ([]*domain.ZoneRun, error) {
	symbols = lo.Uniq(lo.Map(symbols, func(sym string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(sym))
	}))

	runs := make([]*domain.ZoneRun, len(symbols))
	var mu sync.Mutex
	var errs error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			run, err := s.Analyze(gctx, AnalyzeRequest{Symbol: sym, Interval: interval, Limit: limit})
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return nil // non-fatal
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Compact(runs), errs
}

func (s *ZoneService) Latest(ctx context.Context, symbol, interval string) (*domain.ZoneRun, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.LatestRun(ctx, strings.ToUpper(symbol), interval)
}

func (s *ZoneService) ListRuns(ctx context.Context, symbol string, limit int) ([]*domain.RunSummary, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListRuns(ctx, strings.ToUpper(symbol), limit)
}

// Run refreshes every symbol immediately and then on each tick until ctx is
// done.
func (s *ZoneService) Run(ctx context.Context, symbols []string, interval string, limit int, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := s.AnalyzeMany(ctx, symbols, interval, limit); err != nil {
			for _, e := range multierr.Errors(err) {
				s.logger.Error("Failed to refresh zones", zap.Error(e))
			}
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			s.logger.Info("Zone refresh loop stopped")
			return
		}
	}
}
