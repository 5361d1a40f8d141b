package domain

import (
	"context"
	"errors"
)

// ErrRunNotFound is returned by repositories when no run matches.
var ErrRunNotFound = errors.New("zone run not found")

// CandleSource provides an ordered (oldest first), gap-free candle window.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
}

// SeriesFunc computes one value per candle position. Positions without a value
// are NaN.
type SeriesFunc func(s Series) []float64

// ZoneRepository defines storage operations for engine runs. ListRuns with
// an empty symbol lists every symbol, newest first.
type ZoneRepository interface {
	SaveRun(ctx context.Context, run *ZoneRun) error
	GetRun(ctx context.Context, id string) (*ZoneRun, error)
	LatestRun(ctx context.Context, symbol, interval string) (*ZoneRun, error)
	ListRuns(ctx context.Context, symbol string, limit int) ([]*RunSummary, error)
}
