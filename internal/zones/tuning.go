package zones

import (
	"fmt"

	"github.com/vitos/crypto_trade_zones/internal/domain"
)

// PriceProfile holds clustering and edge parameters chosen by price magnitude.
// Percentages are in percent units.
type PriceProfile struct {
	ClusterPct float64
	EdgePct    float64
	MinPivots  int
}

func PriceProfileFor(price float64) PriceProfile {
	switch {
	case price < 0.001:
		return PriceProfile{ClusterPct: 3.0, EdgePct: 2.0, MinPivots: 2}
	case price < 1.0:
		return PriceProfile{ClusterPct: 2.0, EdgePct: 1.0, MinPivots: 2}
	case price < 100:
		return PriceProfile{ClusterPct: 1.5, EdgePct: 1.0, MinPivots: 3}
	default:
		return PriceProfile{ClusterPct: 1.0, EdgePct: 0.8, MinPivots: 3}
	}
}

// TimeframeProfile holds confirmation and band parameters raised to the floor
// of the timeframe group.
type TimeframeProfile struct {
	Confirmation int
	BandPct      float64
	BandATRMult  float64
}

type timeframeFloor struct {
	confirm int
	bandPct float64
	atrMult float64
}

var timeframeFloors = map[string]timeframeFloor{
	"1s":  {3, 0.25, 1.2},
	"1m":  {3, 0.25, 1.2},
	"5m":  {3, 0.25, 1.2},
	"15m": {2, 0.20, 1.0},
	"1h":  {2, 0.20, 1.0},
	"4h":  {2, 0.15, 0.9},
	"1d":  {2, 0.15, 0.9},
	"1w":  {1, 0.10, 0.8},
	"1mn": {1, 0.10, 0.8},
}

func KnownTimeframe(tf string) bool {
	_, ok := timeframeFloors[tf]
	return ok
}

// TimeframeProfileFor never lowers the caller's values. Unknown timeframes
// return them unchanged.
func TimeframeProfileFor(tf string, o Options) TimeframeProfile {
	p := TimeframeProfile{
		Confirmation: o.ConfirmationCandles,
		BandPct:      o.BandPct,
		BandATRMult:  o.BandATRMult,
	}
	f, ok := timeframeFloors[tf]
	if !ok {
		return p
	}
	p.Confirmation = max(p.Confirmation, f.confirm)
	p.BandPct = max(p.BandPct, f.bandPct)
	p.BandATRMult = max(p.BandATRMult, f.atrMult)
	return p
}

// ResolveTuning combines both profiles. min_pivots and cluster percentage
// always come from the price profile; the edge comes from the timeframe band
// in percentage mode and from the price profile otherwise.
func ResolveTuning(median float64, o Options) (domain.Tuning, []string) {
	var warnings []string
	tf := o.Timeframe
	if !KnownTimeframe(tf) {
		warnings = append(warnings, fmt.Sprintf("timeframe %q not recognized, using caller defaults", o.Timeframe))
		tf = "unknown"
	}

	pp := PriceProfileFor(median)
	tp := TimeframeProfileFor(tf, o)

	edge := pp.EdgePct
	if o.BandMode == BandPercentage {
		edge = tp.BandPct
	}

	return domain.Tuning{
		Timeframe:    tf,
		MedianPrice:  median,
		ClusterPct:   pp.ClusterPct,
		EdgePct:      edge / 100.0,
		MinPivots:    pp.MinPivots,
		Confirmation: tp.Confirmation,
		BandPct:      tp.BandPct,
		BandATRMult:  tp.BandATRMult,
	}, warnings
}
