package domain

import "time"

type SignalType string

const (
	SignalBuy   SignalType = "BUY"
	SignalSell  SignalType = "SELL"
	SignalAlert SignalType = "ALERT"
)

type SignalStrength string

const (
	StrengthStrong   SignalStrength = "STRONG"
	StrengthModerate SignalStrength = "MODERATE"
)

// Signal is a structure event derived from the main support/resistance of the
// latest candle of a run.
type Signal struct {
	Kind             string         `json:"kind"` // "breakout" or "zone_proximity"
	Type             SignalType     `json:"type"`
	Direction        string         `json:"direction"`
	Strength         SignalStrength `json:"strength"`
	Confidence       float64        `json:"confidence"`
	Price            float64        `json:"price"`
	ZoneSide         Side           `json:"zone_side"`
	ZoneValue        float64        `json:"zone_value"`
	DistancePct      float64        `json:"distance_pct,omitempty"`
	MomentumConfirms bool           `json:"momentum_confirms"`
}

// ZoneRun is one persisted engine invocation for a symbol and interval.
type ZoneRun struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	Candles   int       `json:"candles"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	Signals   []Signal  `json:"signals"`
	CreatedAt time.Time `json:"created_at"`
}

// RunSummary is the lightweight listing form of a ZoneRun.
type RunSummary struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Interval          string    `json:"interval"`
	Timeframe         string    `json:"timeframe"`
	Candles           int       `json:"candles"`
	Zones             int       `json:"zones"`
	NearestSupport    NullFloat `json:"nearest_support"`
	NearestResistance NullFloat `json:"nearest_resistance"`
	CreatedAt         time.Time `json:"created_at"`
}
