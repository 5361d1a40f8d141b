package zones_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/crypto_trade_zones/internal/zones"
)

func TestPercentageBand(t *testing.T) {
	b := zones.PercentageBand(200, 0.002, 1e-12)
	assert.InDelta(t, 0.4, b.At(0), 1e-12)
	assert.InDelta(t, 0.4, b.At(999), 1e-12)

	// Zero level floors to the minimum width.
	b = zones.PercentageBand(0, 0.002, 1e-6)
	assert.Equal(t, 1e-6, b.At(3))
}

func TestATRBand(t *testing.T) {
	atr := []float64{math.NaN(), 2, 0, 4}
	b := zones.ATRBand(atr, 1.5, 0.01)

	assert.Equal(t, 0.01, b.At(0))
	assert.Equal(t, 3.0, b.At(1))
	assert.Equal(t, 0.01, b.At(2))
	assert.Equal(t, 6.0, b.At(3))
	assert.Equal(t, 0.01, b.At(4), "positions without ATR use the floor")
	assert.Equal(t, 0.01, b.At(-1))
}

func TestATRBand_NilSeries(t *testing.T) {
	b := zones.ATRBand(nil, 1, 1e-12)
	assert.Equal(t, 1e-12, b.At(0))
}
