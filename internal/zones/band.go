package zones

import "github.com/vitos/crypto_trade_zones/internal/domain"

// Band is the tolerance distance around a level at candle i.
type Band interface {
	At(i int) float64
}

type percentBand struct {
	width float64
}

// PercentageBand is constant across candles: level*edge, floored at floor.
// edge is a fraction, not a percent.
func PercentageBand(level, edge, floor float64) Band {
	w := level * edge
	if !domain.IsFinite(w) || w < floor {
		w = floor
	}
	return percentBand{width: w}
}

func (b percentBand) At(int) float64 {
	return b.width
}

type seriesBand struct {
	widths []float64
	floor  float64
}

// ATRBand scales a per-candle ATR series by mult. Missing or non-finite ATR
// values, and widths below floor, fall back to floor.
func ATRBand(atr []float64, mult, floor float64) Band {
	widths := make([]float64, len(atr))
	for i, a := range atr {
		w := a * mult
		if !domain.IsFinite(w) || w < floor {
			w = floor
		}
		widths[i] = w
	}
	return seriesBand{widths: widths, floor: floor}
}

func (b seriesBand) At(i int) float64 {
	if i < 0 || i >= len(b.widths) {
		return b.floor
	}
	return b.widths[i]
}
