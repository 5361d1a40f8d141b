package zones_test

import (
	"math"

	"github.com/vitos/crypto_trade_zones/internal/domain"
)

// seriesFromCloses builds a series whose high and low sit spread above and
// below each close.
func seriesFromCloses(closes []float64, spread float64) domain.Series {
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{
			Time:  int64(i) * 60,
			Open:  c,
			High:  c + spread,
			Low:   c - spread,
			Close: c,
		}
	}
	return domain.SeriesFromCandles(candles)
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// triangle oscillates between 95 and 105 with period 20: troughs at i%20 == 0,
// peaks at i%20 == 10.
func triangle(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		p := i % 20
		if p <= 10 {
			out[i] = 95 + float64(p)
		} else {
			out[i] = 105 - float64(p-10)
		}
	}
	return out
}

func constSeries(v float64) domain.SeriesFunc {
	return func(s domain.Series) []float64 {
		return flat(s.Len(), v)
	}
}

func nan() float64 {
	return math.NaN()
}
