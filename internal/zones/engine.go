// Package zones detects horizontal support and resistance zones in a candle
// window, tracks their breaks and polarity flips, and assigns them to stable
// per-candle slots.
package zones

import (
	"fmt"

	"github.com/vitos/crypto_trade_zones/internal/domain"
	"go.uber.org/zap"
)

// Engine is a pure batch transform from a candle series to an Analysis. It
// holds no state between calls and is safe for concurrent use.
type Engine struct {
	opts     Options
	warnings []string
	atr      domain.SeriesFunc
	logger   *zap.Logger
}

// NewEngine normalizes opts and logs every adjustment. atr supplies the
// per-candle average true range used by the ATR band; when it is nil every
// ATR band collapses to min_band_abs.
func NewEngine(opts Options, atr domain.SeriesFunc, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	norm, warnings := opts.Normalize()
	for _, w := range warnings {
		logger.Warn("Engine option adjusted", zap.String("warning", w))
	}
	return &Engine{opts: norm, warnings: warnings, atr: atr, logger: logger}
}

func (e *Engine) Options() Options {
	return e.opts
}

// WithTimeframe returns an engine sharing the same configuration but tuned for
// another timeframe label.
func (e *Engine) WithTimeframe(tf string) *Engine {
	opts := e.opts
	opts.Timeframe = tf
	return NewEngine(opts, e.atr, e.logger)
}

// Analyze runs pivots, clustering, zone building and sticky assignment over
// s. It only fails on a malformed series; insufficient data yields rows with
// every derived value absent.
func (e *Engine) Analyze(s domain.Series) (*domain.Analysis, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	n := s.Len()
	warnings := append([]string(nil), e.warnings...)

	median, ok := s.MedianClose()
	if !ok {
		warnings = append(warnings, "no finite close in series")
	}
	tuning, tw := ResolveTuning(median, e.opts)
	for _, w := range tw {
		e.logger.Warn("Engine tuning fallback", zap.String("warning", w))
	}
	warnings = append(warnings, tw...)

	pivots := DetectPivots(s, e.opts.PivotWindow)
	assigner := NewAssigner(e.opts.MaxZones, e.opts.LevelTolPct, e.opts.HysteresisRatio, e.logger)
	analysis := &domain.Analysis{
		Pivots:   pivots,
		Zones:    []domain.Zone{},
		Tuning:   tuning,
		Warnings: warnings,
	}

	supVals, resVals := pivotValues(s, pivots)
	if len(supVals)+len(resVals) == 0 {
		e.logger.Info("No pivots detected", zap.Int("candles", n), zap.Int("pivot_window", e.opts.PivotWindow))
		analysis.Rows = assigner.Assign(s, nil, pivots)
		return analysis, nil
	}

	supClusters := FilterClusters(ClusterLevels(supVals, tuning.ClusterPct), tuning.MinPivots)
	resClusters := FilterClusters(ClusterLevels(resVals, tuning.ClusterPct), tuning.MinPivots)

	bandFor, bw := e.bandFactory(s, tuning)
	analysis.Warnings = append(analysis.Warnings, bw...)

	builder := NewBuilder(NewScanner(s, e.opts.UseCloseOnly), n, tuning.Confirmation, bandFor, e.opts, e.logger)
	analysis.Zones = builder.Build(supClusters, resClusters)
	analysis.Rows = assigner.Assign(s, analysis.Zones, pivots)

	e.logger.Debug("Zones built",
		zap.Int("candles", n),
		zap.Int("support_pivots", len(supVals)),
		zap.Int("resistance_pivots", len(resVals)),
		zap.Int("support_clusters", len(supClusters)),
		zap.Int("resistance_clusters", len(resClusters)),
		zap.Int("zones", len(analysis.Zones)),
		zap.String("timeframe", tuning.Timeframe))
	return analysis, nil
}

func (e *Engine) bandFactory(s domain.Series, t domain.Tuning) (func(level float64) Band, []string) {
	floor := e.opts.MinBandAbs
	if e.opts.BandMode != BandATR {
		return func(level float64) Band {
			return PercentageBand(level, t.EdgePct, floor)
		}, nil
	}

	var warnings []string
	var atr []float64
	if e.atr == nil {
		warnings = append(warnings, "no ATR provider, ATR band uses min_band_abs")
	} else {
		atr = e.atr(s)
		if len(atr) != s.Len() {
			warnings = append(warnings, fmt.Sprintf("ATR series has %d values for %d candles, missing values use min_band_abs", len(atr), s.Len()))
		}
	}
	for _, w := range warnings {
		e.logger.Warn("ATR band degraded", zap.String("warning", w))
	}
	band := ATRBand(atr, t.BandATRMult, floor)
	return func(float64) Band { return band }, warnings
}
