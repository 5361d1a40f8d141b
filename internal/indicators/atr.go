// Package indicators provides the per-candle series the zone engine and the
// structure signals consume, as domain.SeriesFunc values.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/vitos/crypto_trade_zones/internal/domain"
)

const DefaultATRPeriod = 14

// ATR returns Wilder's average true range over period. Candles before the
// first full period use the mean of the true ranges seen so far. Series with
// non-finite prices skip those candles and leave them NaN.
//
// On a fully finite series talib seeds index period with the mean of
// TR[1..period], so the warm-up there leaves out the first candle's
// previous-close-less range once a later one exists.
func ATR(period int) domain.SeriesFunc {
	if period < 1 {
		period = DefaultATRPeriod
	}
	return func(s domain.Series) []float64 {
		n := s.Len()
		if n > period && allFinite(s.High, s.Low, s.Close) {
			out := talib.Atr(s.High, s.Low, s.Close, period)
			out[0] = s.High[0] - s.Low[0]
			sum := 0.0
			for i := 1; i < period; i++ {
				sum += trueRange(s, i, s.Close[i-1])
				out[i] = sum / float64(i)
			}
			return out
		}
		return wilderATR(s, period)
	}
}

func trueRange(s domain.Series, i int, prevClose float64) float64 {
	hl := s.High[i] - s.Low[i]
	if !domain.IsFinite(prevClose) {
		return hl
	}
	return math.Max(hl, math.Max(math.Abs(s.High[i]-prevClose), math.Abs(s.Low[i]-prevClose)))
}

func wilderATR(s domain.Series, period int) []float64 {
	n := s.Len()
	out := make([]float64, n)
	prevClose := math.NaN()
	atr, sum := 0.0, 0.0
	count := 0
	for i := 0; i < n; i++ {
		if !domain.IsFinite(s.High[i]) || !domain.IsFinite(s.Low[i]) {
			out[i] = math.NaN()
			continue
		}
		tr := trueRange(s, i, prevClose)
		if domain.IsFinite(s.Close[i]) {
			prevClose = s.Close[i]
		}
		count++
		if count <= period {
			sum += tr
			atr = sum / float64(count)
		} else {
			atr = (atr*float64(period-1) + tr) / float64(period)
		}
		out[i] = atr
	}
	return out
}

func allFinite(cols ...[]float64) bool {
	for _, col := range cols {
		for _, v := range col {
			if !domain.IsFinite(v) {
				return false
			}
		}
	}
	return true
}
