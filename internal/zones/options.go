package zones

import (
	"fmt"
	"strings"
)

type BandMode string

const (
	BandPercentage BandMode = "percentage"
	BandATR        BandMode = "atr"
)

const defaultMinBandAbs = 1e-12

// Options configures one engine invocation. Field tags match the engine
// section of the service configuration file.
type Options struct {
	Timeframe           string   `yaml:"timeframe" json:"timeframe"`
	PivotWindow         int      `yaml:"pivot_window" json:"pivot_window"`
	MaxZones            int      `yaml:"max_zones" json:"max_zones"`
	UseCloseOnly        bool     `yaml:"use_close_only" json:"use_close_only"`
	ConfirmationCandles int      `yaml:"confirmation_candles" json:"confirmation_candles"`
	BandMode            BandMode `yaml:"band_mode" json:"band_mode"`
	BandPct             float64  `yaml:"band_pct" json:"band_pct"`
	BandATRMult         float64  `yaml:"band_atr_mult" json:"band_atr_mult"`
	MinBandAbs          float64  `yaml:"min_band_abs" json:"min_band_abs"`
	MergeBreaksMinSep   int      `yaml:"merge_breaks_min_sep" json:"merge_breaks_min_sep"`
	LevelTolPct         float64  `yaml:"level_tol_pct" json:"level_tol_pct"`
	HysteresisRatio     float64  `yaml:"hysteresis_ratio" json:"hysteresis_ratio"`
	EnablePolarity      bool     `yaml:"enable_polarity" json:"enable_polarity"`
	PolarityCooldown    int      `yaml:"polarity_cooldown" json:"polarity_cooldown"`
	EternalPolarity     bool     `yaml:"eternal_polarity" json:"eternal_polarity"`
}

func DefaultOptions() Options {
	return Options{
		Timeframe:           "5m",
		PivotWindow:         10,
		MaxZones:            3,
		UseCloseOnly:        false,
		ConfirmationCandles: 3,
		BandMode:            BandATR,
		BandPct:             0.20,
		BandATRMult:         1.0,
		MinBandAbs:          defaultMinBandAbs,
		MergeBreaksMinSep:   5,
		LevelTolPct:         0.05,
		HysteresisRatio:     0.25,
		EnablePolarity:      true,
		PolarityCooldown:    0,
		EternalPolarity:     false,
	}
}

// Normalize clamps every option into its valid range and returns the
// corrected copy together with one warning per adjusted field. It never fails.
func (o Options) Normalize() (Options, []string) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	o.Timeframe = strings.ToLower(strings.TrimSpace(o.Timeframe))

	if o.PivotWindow < 1 {
		warn("pivot_window %d below 1, using 1", o.PivotWindow)
		o.PivotWindow = 1
	}
	if o.MaxZones < 1 {
		warn("max_zones %d below 1, using 1", o.MaxZones)
		o.MaxZones = 1
	}
	if o.ConfirmationCandles < 1 {
		warn("confirmation_candles %d below 1, using 1", o.ConfirmationCandles)
		o.ConfirmationCandles = 1
	}

	switch BandMode(strings.ToLower(strings.TrimSpace(string(o.BandMode)))) {
	case BandATR:
		o.BandMode = BandATR
	case BandPercentage, "pct":
		o.BandMode = BandPercentage
	default:
		warn("band_mode %q not recognized, using %q", o.BandMode, BandPercentage)
		o.BandMode = BandPercentage
	}

	if o.BandPct < 0 {
		warn("band_pct %g negative, using 0", o.BandPct)
		o.BandPct = 0
	}
	if o.BandATRMult < 0 {
		warn("band_atr_mult %g negative, using 0", o.BandATRMult)
		o.BandATRMult = 0
	}
	if !(o.MinBandAbs > 0) {
		warn("min_band_abs %g not positive, using %g", o.MinBandAbs, defaultMinBandAbs)
		o.MinBandAbs = defaultMinBandAbs
	}
	if o.MergeBreaksMinSep < 0 {
		warn("merge_breaks_min_sep %d negative, merging disabled", o.MergeBreaksMinSep)
		o.MergeBreaksMinSep = 0
	}
	if !(o.LevelTolPct >= 0) {
		warn("level_tol_pct %g negative, using 0", o.LevelTolPct)
		o.LevelTolPct = 0
	}
	if !(o.HysteresisRatio >= 0) {
		warn("hysteresis_ratio %g below 0, using 0", o.HysteresisRatio)
		o.HysteresisRatio = 0
	} else if o.HysteresisRatio > 1 {
		warn("hysteresis_ratio %g above 1, using 1", o.HysteresisRatio)
		o.HysteresisRatio = 1
	}
	if o.PolarityCooldown < 0 {
		warn("polarity_cooldown %d negative, using 0", o.PolarityCooldown)
		o.PolarityCooldown = 0
	}
	return o, warnings
}
