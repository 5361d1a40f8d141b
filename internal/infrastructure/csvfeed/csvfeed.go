// Package csvfeed serves candles from CSV files for offline analysis.
package csvfeed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vitos/crypto_trade_zones/internal/domain"
)

var ErrMissingColumn = errors.New("csv: required column missing")

// Source reads one CSV file per request. Symbol and interval are ignored; the
// file is the series.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// GetCandles returns the last limit candles of the file (all when limit <= 0).
func (s *Source) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	candles, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// Read parses a header row naming time, open, high, low, close and optionally
// volume, in any order. Time is unix seconds, unix milliseconds or RFC3339.
// Empty or unparsable prices become NaN.
func Read(r io.Reader) ([]domain.Candle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"time", "open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	volIdx, hasVol := cols["volume"]

	var candles []domain.Candle
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ts, err := parseTime(field(rec, cols["time"]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c := domain.Candle{
			Time:   ts,
			Open:   parseFloat(field(rec, cols["open"])),
			High:   parseFloat(field(rec, cols["high"])),
			Low:    parseFloat(field(rec, cols["low"])),
			Close:  parseFloat(field(rec, cols["close"])),
			Volume: math.NaN(),
		}
		if hasVol {
			c.Volume = parseFloat(field(rec, volIdx))
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseTime(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 {
			return n / 1000, nil
		}
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return t.Unix(), nil
}
