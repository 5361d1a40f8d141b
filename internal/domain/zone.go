package domain

import (
	"bytes"
	"encoding/json"
	"math"
)

type Side string

const (
	SideSupport    Side = "SUPPORT"
	SideResistance Side = "RESISTANCE"
)

// Sign orders sides the way zones are sorted: support before resistance.
func (s Side) Sign() int {
	if s == SideSupport {
		return -1
	}
	return 1
}

func (s Side) Opposite() Side {
	if s == SideSupport {
		return SideResistance
	}
	return SideSupport
}

type PivotLabel int

const (
	PivotLow  PivotLabel = -1
	PivotNone PivotLabel = 0
	PivotHigh PivotLabel = 1
)

// Zone is a horizontal level with an inclusive active interval [X0, X1] of
// candle positions.
type Zone struct {
	ID         int     `json:"id"`
	Side       Side    `json:"side"`
	Value      float64 `json:"value"`
	X0         int     `json:"x0"`
	X1         int     `json:"x1"`
	Strength   int     `json:"strength"`
	IsReversal bool    `json:"is_reversal"`
}

func (z Zone) ActiveAt(i int) bool {
	return z.X0 <= i && i <= z.X1
}

// NullFloat is a price that may be absent. Absent values encode as JSON null.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func Some(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Float64) || math.IsInf(n.Float64, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// AssignmentRow is the per-candle output of the sticky assignment.
type AssignmentRow struct {
	Index             int         `json:"index"`
	Time              int64       `json:"time,omitempty"`
	Close             float64     `json:"close"`
	Pivot             PivotLabel  `json:"pivot"`
	Support           []NullFloat `json:"support"`
	Resistance        []NullFloat `json:"resistance"`
	NearestSupport    NullFloat   `json:"nearest_support"`
	NearestResistance NullFloat   `json:"nearest_resistance"`
}

// MarshalJSON encodes a missing close as null.
func (r AssignmentRow) MarshalJSON() ([]byte, error) {
	type alias AssignmentRow
	return json.Marshal(struct {
		alias
		Close NullFloat `json:"close"`
	}{alias: alias(r), Close: Some(r.Close)})
}

func (r *AssignmentRow) UnmarshalJSON(data []byte) error {
	type alias AssignmentRow
	aux := struct {
		*alias
		Close NullFloat `json:"close"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Close = math.NaN()
	if aux.Close.Valid {
		r.Close = aux.Close.Float64
	}
	return nil
}

// Tuning is the effective parameter set a run used after price and timeframe
// adaptation.
type Tuning struct {
	Timeframe    string  `json:"timeframe"`
	MedianPrice  float64 `json:"median_price"`
	ClusterPct   float64 `json:"cluster_pct"`
	EdgePct      float64 `json:"edge_pct"`
	MinPivots    int     `json:"min_pivots"`
	Confirmation int     `json:"confirmation"`
	BandPct      float64 `json:"band_pct"`
	BandATRMult  float64 `json:"band_atr_mult"`
}

// Analysis is the full result of one engine invocation. Rows and Pivots are
// aligned 1:1 with the input positions.
type Analysis struct {
	Pivots   []PivotLabel    `json:"pivots"`
	Zones    []Zone          `json:"zones"`
	Rows     []AssignmentRow `json:"rows"`
	Tuning   Tuning          `json:"tuning"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (a *Analysis) Last() (AssignmentRow, bool) {
	if a == nil || len(a.Rows) == 0 {
		return AssignmentRow{}, false
	}
	return a.Rows[len(a.Rows)-1], true
}
