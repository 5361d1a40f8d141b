package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/vitos/crypto_trade_zones/internal/domain"
)

const (
	DefaultRSIPeriod  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// RSI returns the relative strength index of closes; positions inside the
// lookback are NaN.
func RSI(period int) domain.SeriesFunc {
	return func(s domain.Series) []float64 {
		n := s.Len()
		if n <= period {
			return nanSeries(n)
		}
		return maskLookback(talib.Rsi(s.Close, period), period)
	}
}

// MACDHist returns MACD minus its signal line; positive when MACD is above
// the signal.
func MACDHist(fast, slow, signal int) domain.SeriesFunc {
	return func(s domain.Series) []float64 {
		n := s.Len()
		lookback := slow + signal - 2
		if n <= lookback {
			return nanSeries(n)
		}
		_, _, hist := talib.Macd(s.Close, fast, slow, signal)
		return maskLookback(hist, lookback)
	}
}

// Momentum is the momentum context at one candle.
type Momentum struct {
	RSI      float64
	MACDHist float64
}

// MomentumAt evaluates RSI(14) and MACD(12,26,9) and returns their values at
// the last candle.
func MomentumAt(s domain.Series) Momentum {
	n := s.Len()
	if n == 0 {
		return Momentum{RSI: math.NaN(), MACDHist: math.NaN()}
	}
	rsi := RSI(DefaultRSIPeriod)(s)
	hist := MACDHist(DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)(s)
	return Momentum{RSI: rsi[n-1], MACDHist: hist[n-1]}
}

func maskLookback(values []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
