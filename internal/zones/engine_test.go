package zones_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/zones"
)

func oscillatingOptions() zones.Options {
	opts := zones.DefaultOptions()
	opts.Timeframe = "1h"
	opts.PivotWindow = 3
	opts.BandMode = zones.BandPercentage
	return opts
}

func TestEngine_FlatSeriesHasNoZones(t *testing.T) {
	opts := zones.DefaultOptions()
	opts.PivotWindow = 5
	engine := zones.NewEngine(opts, constSeries(1), nil)

	a, err := engine.Analyze(seriesFromCloses(flat(50, 100), 0))
	require.NoError(t, err)

	assert.Len(t, a.Rows, 50)
	assert.Len(t, a.Pivots, 50)
	assert.Empty(t, a.Zones)
	for _, r := range a.Rows {
		require.Len(t, r.Support, opts.MaxZones)
		require.Len(t, r.Resistance, opts.MaxZones)
		for k := 0; k < opts.MaxZones; k++ {
			assert.False(t, r.Support[k].Valid)
			assert.False(t, r.Resistance[k].Valid)
		}
		assert.False(t, r.NearestSupport.Valid)
		assert.False(t, r.NearestResistance.Valid)
	}
}

func TestEngine_TooFewCandles(t *testing.T) {
	engine := zones.NewEngine(zones.DefaultOptions(), constSeries(1), nil)

	a, err := engine.Analyze(seriesFromCloses([]float64{1, 2, 3}, 0.1))

	require.NoError(t, err)
	assert.Len(t, a.Rows, 3)
	assert.Empty(t, a.Zones)
}

func TestEngine_OscillatingSeries(t *testing.T) {
	engine := zones.NewEngine(oscillatingOptions(), nil, nil)

	a, err := engine.Analyze(seriesFromCloses(triangle(200), 0.5))
	require.NoError(t, err)

	require.Len(t, a.Zones, 2)
	assert.Equal(t, domain.SideSupport, a.Zones[0].Side)
	assert.InDelta(t, 94.5, a.Zones[0].Value, 1e-9)
	assert.Equal(t, 9, a.Zones[0].Strength)
	assert.Equal(t, domain.SideResistance, a.Zones[1].Side)
	assert.InDelta(t, 105.5, a.Zones[1].Value, 1e-9)
	assert.Equal(t, 10, a.Zones[1].Strength)

	assert.Equal(t, 3, a.Tuning.MinPivots)
	assert.Equal(t, "1h", a.Tuning.Timeframe)

	last, ok := a.Last()
	require.True(t, ok)
	assert.InDelta(t, 94.5, last.NearestSupport.Float64, 1e-9)
	assert.InDelta(t, 105.5, last.NearestResistance.Float64, 1e-9)
	assert.Equal(t, domain.PivotHigh, a.Pivots[10])
	assert.Equal(t, domain.PivotLow, a.Pivots[20])
}

func TestEngine_BreakAndPolarity(t *testing.T) {
	closes := triangle(120)
	for i := 120; i < 200; i++ {
		closes = append(closes, 80)
	}
	opts := oscillatingOptions()
	opts.EternalPolarity = true
	engine := zones.NewEngine(opts, nil, nil)

	a, err := engine.Analyze(seriesFromCloses(closes, 0.5))
	require.NoError(t, err)

	// The tail of flat 80s leaves its own low pivots at 120..122, so the
	// broken support is picked by value.
	var base, rev *domain.Zone
	for i := range a.Zones {
		z := &a.Zones[i]
		if z.Value < 94 || z.Value > 95 {
			continue
		}
		if z.IsReversal {
			rev = z
		} else {
			base = z
		}
	}
	require.NotNil(t, base)
	require.NotNil(t, rev)

	// Three lows at 79.5 confirm the break: 120, 121, 122 -> x1 = 119.
	assert.Equal(t, domain.SideSupport, base.Side)
	assert.Equal(t, 119, base.X1)
	assert.Equal(t, domain.SideResistance, rev.Side)
	assert.Equal(t, 120, rev.X0)
	assert.Equal(t, 199, rev.X1)

	// Slot 1 stays on the older 105.5 resistance; the flipped level takes
	// slot 2 and is the nearest resistance.
	last, _ := a.Last()
	assert.InDelta(t, 105.5, last.Resistance[0].Float64, 1e-9)
	assert.InDelta(t, base.Value, last.Resistance[1].Float64, 1e-9)
	assert.InDelta(t, base.Value, last.NearestResistance.Float64, 1e-9)
	assert.InDelta(t, 79.5, last.NearestSupport.Float64, 1e-9)
}

func TestEngine_ATRMode(t *testing.T) {
	opts := oscillatingOptions()
	opts.BandMode = zones.BandATR
	engine := zones.NewEngine(opts, constSeries(2), nil)

	a, err := engine.Analyze(seriesFromCloses(triangle(200), 0.5))

	require.NoError(t, err)
	assert.Len(t, a.Zones, 2)
	assert.Empty(t, a.Warnings)
}

func TestEngine_ATRModeWithoutProvider(t *testing.T) {
	opts := oscillatingOptions()
	opts.BandMode = zones.BandATR
	engine := zones.NewEngine(opts, nil, nil)

	a, err := engine.Analyze(seriesFromCloses(triangle(200), 0.5))

	require.NoError(t, err)
	assert.NotEmpty(t, a.Warnings)
	assert.Len(t, a.Rows, 200)
}

func TestEngine_Deterministic(t *testing.T) {
	closes := triangle(300)
	for i := 150; i < 300; i++ {
		closes[i] += float64(i%7) * 0.3
	}
	s := seriesFromCloses(closes, 0.7)
	engine := zones.NewEngine(oscillatingOptions(), nil, nil)

	first, err := engine.Analyze(s)
	require.NoError(t, err)
	second, err := engine.Analyze(s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Invariants(t *testing.T) {
	closes := triangle(400)
	for i := range closes {
		closes[i] += float64(i) * 0.04
	}
	opts := oscillatingOptions()
	opts.MaxZones = 2
	opts.ConfirmationCandles = 1
	engine := zones.NewEngine(opts, nil, nil)
	s := seriesFromCloses(closes, 0.6)

	a, err := engine.Analyze(s)
	require.NoError(t, err)
	require.Len(t, a.Rows, s.Len())

	for _, z := range a.Zones {
		assert.GreaterOrEqual(t, z.X0, 0)
		assert.LessOrEqual(t, z.X0, z.X1)
		assert.LessOrEqual(t, z.X1, s.Len()-1)
	}

	assigner := zones.NewAssigner(opts.MaxZones, opts.LevelTolPct, opts.HysteresisRatio, nil)
	activeValue := func(side domain.Side, v float64, i int) bool {
		for _, z := range a.Zones {
			if z.Side == side && z.Value == v && z.ActiveAt(i) {
				return true
			}
		}
		return false
	}
	for i, r := range a.Rows {
		assert.Equal(t, i, r.Index)
		for _, v := range r.Support {
			if v.Valid {
				assert.True(t, activeValue(domain.SideSupport, v.Float64, i), "support %v at candle %d", v.Float64, i)
			}
		}
		for _, v := range r.Resistance {
			if v.Valid {
				assert.True(t, activeValue(domain.SideResistance, v.Float64, i), "resistance %v at candle %d", v.Float64, i)
			}
		}
		for _, side := range [][]domain.NullFloat{r.Support, r.Resistance} {
			assert.LessOrEqual(t, len(side), opts.MaxZones)
			for x := range side {
				for y := x + 1; y < len(side); y++ {
					if side[x].Valid && side[y].Valid {
						assert.False(t, assigner.SameLevel(side[x].Float64, side[y].Float64), "candle %d", i)
					}
				}
			}
		}
	}
}

func TestEngine_MalformedSeries(t *testing.T) {
	engine := zones.NewEngine(zones.DefaultOptions(), nil, nil)

	_, err := engine.Analyze(domain.Series{})
	assert.ErrorIs(t, err, domain.ErrEmptySeries)

	_, err = engine.Analyze(domain.Series{High: []float64{1}, Low: []float64{1, 2}, Close: []float64{1}})
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestEngine_UnknownTimeframeWarns(t *testing.T) {
	opts := oscillatingOptions()
	opts.Timeframe = "2h"
	engine := zones.NewEngine(opts, nil, nil)

	a, err := engine.Analyze(seriesFromCloses(triangle(100), 0.5))

	require.NoError(t, err)
	assert.Equal(t, "unknown", a.Tuning.Timeframe)
	assert.NotEmpty(t, a.Warnings)
}

func TestOptions_Normalize(t *testing.T) {
	opts := zones.Options{
		PivotWindow:       0,
		MaxZones:          -1,
		BandMode:          "bogus",
		BandPct:           -1,
		MinBandAbs:        0,
		MergeBreaksMinSep: -3,
		LevelTolPct:       -0.1,
		HysteresisRatio:   2,
		PolarityCooldown:  -1,
		Timeframe:         " 1H ",
	}

	got, warnings := opts.Normalize()

	assert.Equal(t, 1, got.PivotWindow)
	assert.Equal(t, 1, got.MaxZones)
	assert.Equal(t, 1, got.ConfirmationCandles)
	assert.Equal(t, zones.BandPercentage, got.BandMode)
	assert.Equal(t, 0.0, got.BandPct)
	assert.Equal(t, 1e-12, got.MinBandAbs)
	assert.Equal(t, 0, got.MergeBreaksMinSep)
	assert.Equal(t, 0.0, got.LevelTolPct)
	assert.Equal(t, 1.0, got.HysteresisRatio)
	assert.Equal(t, 0, got.PolarityCooldown)
	assert.Equal(t, "1h", got.Timeframe)
	assert.Len(t, warnings, 10)

	_, warnings = zones.DefaultOptions().Normalize()
	assert.Empty(t, warnings)

	pct := zones.DefaultOptions()
	pct.BandMode = "PCT"
	got, warnings = pct.Normalize()
	assert.Equal(t, zones.BandPercentage, got.BandMode)
	assert.Empty(t, warnings)
}
