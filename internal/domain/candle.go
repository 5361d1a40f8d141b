package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrEmptySeries   = errors.New("candle series is empty")
	ErrShapeMismatch = errors.New("candle series columns have mismatched lengths")
)

type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Series is the columnar, position-addressed view of a candle window.
// Time, Open and Volume are optional and may be nil.
type Series struct {
	Time   []int64
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

func SeriesFromCandles(candles []Candle) Series {
	s := Series{
		Time:   make([]int64, len(candles)),
		Open:   make([]float64, len(candles)),
		High:   make([]float64, len(candles)),
		Low:    make([]float64, len(candles)),
		Close:  make([]float64, len(candles)),
		Volume: make([]float64, len(candles)),
	}
	for i, c := range candles {
		s.Time[i] = c.Time
		s.Open[i] = c.Open
		s.High[i] = c.High
		s.Low[i] = c.Low
		s.Close[i] = c.Close
		s.Volume[i] = c.Volume
	}
	return s
}

// Len returns the number of candles, taken from the Close column.
func (s Series) Len() int {
	return len(s.Close)
}

// Validate checks the shape of the series. High, Low and Close are required;
// optional columns must either be nil or match the Close length.
func (s Series) Validate() error {
	n := len(s.Close)
	if n == 0 {
		return ErrEmptySeries
	}
	if len(s.High) != n || len(s.Low) != n {
		return fmt.Errorf("%w: high=%d low=%d close=%d", ErrShapeMismatch, len(s.High), len(s.Low), n)
	}
	if s.Time != nil && len(s.Time) != n {
		return fmt.Errorf("%w: time=%d close=%d", ErrShapeMismatch, len(s.Time), n)
	}
	if s.Open != nil && len(s.Open) != n {
		return fmt.Errorf("%w: open=%d close=%d", ErrShapeMismatch, len(s.Open), n)
	}
	if s.Volume != nil && len(s.Volume) != n {
		return fmt.Errorf("%w: volume=%d close=%d", ErrShapeMismatch, len(s.Volume), n)
	}
	return nil
}

// MedianClose is the median over the finite closes. ok is false when no close
// is finite.
func (s Series) MedianClose() (median float64, ok bool) {
	vals := make([]float64, 0, len(s.Close))
	for _, c := range s.Close {
		if IsFinite(c) {
			vals = append(vals, c)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}

func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
