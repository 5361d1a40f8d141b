package zones_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/zones"
)

func TestDetectPivots_FlatSeriesHasNoPivots(t *testing.T) {
	s := seriesFromCloses(flat(50, 100), 1)

	labels := zones.DetectPivots(s, 5)

	assert.Len(t, labels, 50)
	for i, l := range labels {
		assert.Equal(t, domain.PivotNone, l, "position %d", i)
	}
}

func TestDetectPivots_HighAndLow(t *testing.T) {
	highs := []float64{1, 2, 3, 5, 3, 2, 1, 2, 3}
	s := domain.Series{
		High:  highs,
		Low:   make([]float64, len(highs)),
		Close: make([]float64, len(highs)),
	}
	for i, h := range highs {
		s.Low[i] = h - 0.5
		s.Close[i] = h - 0.25
	}

	labels := zones.DetectPivots(s, 2)

	want := []domain.PivotLabel{
		domain.PivotNone, domain.PivotNone, domain.PivotNone,
		domain.PivotHigh, domain.PivotNone, domain.PivotNone,
		domain.PivotLow, domain.PivotNone, domain.PivotNone,
	}
	assert.Equal(t, want, labels)
}

func TestDetectPivots_ShortSeriesAndEdges(t *testing.T) {
	// Fewer candles than a full window: nothing has enough context.
	s := seriesFromCloses([]float64{1, 5, 1}, 0.1)
	for _, l := range zones.DetectPivots(s, 2) {
		assert.Equal(t, domain.PivotNone, l)
	}

	// The global max sits on the edge and is never labeled.
	s = seriesFromCloses([]float64{9, 1, 2, 1, 2}, 0.1)
	labels := zones.DetectPivots(s, 1)
	assert.Equal(t, domain.PivotNone, labels[0])
	assert.Equal(t, domain.PivotLow, labels[1])
	assert.Equal(t, domain.PivotHigh, labels[2])
}

func TestDetectPivots_NonFiniteWindowIsSkipped(t *testing.T) {
	s := seriesFromCloses([]float64{1, 2, 3, 5, 3, 2, 1}, 0.1)
	s.High[4] = math.NaN()

	labels := zones.DetectPivots(s, 2)

	// Position 3 would be a high pivot but its window holds a NaN.
	assert.Equal(t, domain.PivotNone, labels[3])
	assert.Equal(t, domain.PivotNone, labels[4])
}

func TestDetectPivots_NonFiniteOnlyBlocksItsSide(t *testing.T) {
	s := seriesFromCloses([]float64{5, 4, 3, 1, 3, 4, 5}, 0.1)
	s.High[4] = math.NaN()

	labels := zones.DetectPivots(s, 2)

	assert.Equal(t, domain.PivotLow, labels[3], "a NaN high does not hide the low pivot")

	s.Low[2] = math.NaN()
	labels = zones.DetectPivots(s, 2)
	assert.Equal(t, domain.PivotNone, labels[3])
}
