package zones_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/crypto_trade_zones/internal/zones"
)

func TestPriceProfileFor(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  zones.PriceProfile
	}{
		{"micro cap", 0.0005, zones.PriceProfile{ClusterPct: 3.0, EdgePct: 2.0, MinPivots: 2}},
		{"sub dollar", 0.5, zones.PriceProfile{ClusterPct: 2.0, EdgePct: 1.0, MinPivots: 2}},
		{"boundary one", 1.0, zones.PriceProfile{ClusterPct: 1.5, EdgePct: 1.0, MinPivots: 3}},
		{"mid", 42, zones.PriceProfile{ClusterPct: 1.5, EdgePct: 1.0, MinPivots: 3}},
		{"large", 65000, zones.PriceProfile{ClusterPct: 1.0, EdgePct: 0.8, MinPivots: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, zones.PriceProfileFor(tt.price))
		})
	}
}

func TestTimeframeProfileFor_RaisesNeverLowers(t *testing.T) {
	opts := zones.DefaultOptions()
	opts.ConfirmationCandles = 1
	opts.BandPct = 0.05
	opts.BandATRMult = 0.5

	p := zones.TimeframeProfileFor("1m", opts)
	assert.Equal(t, 3, p.Confirmation)
	assert.Equal(t, 0.25, p.BandPct)
	assert.Equal(t, 1.2, p.BandATRMult)

	p = zones.TimeframeProfileFor("1d", opts)
	assert.Equal(t, 2, p.Confirmation)
	assert.Equal(t, 0.15, p.BandPct)
	assert.Equal(t, 0.9, p.BandATRMult)

	// Caller values above the floor win.
	opts.ConfirmationCandles = 7
	opts.BandPct = 1.0
	opts.BandATRMult = 3
	p = zones.TimeframeProfileFor("1w", opts)
	assert.Equal(t, zones.TimeframeProfile{Confirmation: 7, BandPct: 1.0, BandATRMult: 3}, p)
}

func TestResolveTuning_UnknownTimeframe(t *testing.T) {
	opts := zones.DefaultOptions()
	opts.Timeframe = "3d"

	tuning, warnings := zones.ResolveTuning(50, opts)

	assert.Len(t, warnings, 1)
	assert.Equal(t, "unknown", tuning.Timeframe)
	assert.Equal(t, opts.ConfirmationCandles, tuning.Confirmation)
	assert.Equal(t, opts.BandATRMult, tuning.BandATRMult)
}

func TestResolveTuning_EdgeSource(t *testing.T) {
	opts := zones.DefaultOptions()
	opts.Timeframe = "1h"

	opts.BandMode = zones.BandPercentage
	tuning, warnings := zones.ResolveTuning(250, opts)
	assert.Empty(t, warnings)
	assert.InDelta(t, 0.0020, tuning.EdgePct, 1e-12)
	assert.Equal(t, 1.0, tuning.ClusterPct)
	assert.Equal(t, 3, tuning.MinPivots)

	opts.BandMode = zones.BandATR
	tuning, _ = zones.ResolveTuning(250, opts)
	assert.InDelta(t, 0.008, tuning.EdgePct, 1e-12)
	assert.Equal(t, 3, tuning.Confirmation)
}
