package usecase

import (
	"math"

	"github.com/vitos/crypto_trade_zones/internal/domain"
	"github.com/vitos/crypto_trade_zones/internal/indicators"
)

const (
	breakoutMargin      = 0.002
	proximityPct        = 0.005
	breakoutConfidence  = 0.8
	weakConfidence      = 0.6
	proximityConfidence = 0.5

	rsiBullish = 60.0
	rsiBearish = 40.0
)

// StructureSignals reads the main (nearest) support and resistance of the
// last row. A close more than 0.2% beyond a main level is a breakout; a close
// within 0.5% of it is a proximity alert. Breakouts that momentum does not
// confirm are downgraded.
func StructureSignals(row domain.AssignmentRow, m indicators.Momentum) []domain.Signal {
	price := row.Close
	if !domain.IsFinite(price) {
		return nil
	}

	var signals []domain.Signal

	if res := row.NearestResistance; res.Valid && res.Float64 > 0 {
		level := res.Float64
		if price > level*(1+breakoutMargin) {
			signals = append(signals, breakout(domain.SignalBuy, "up", price, domain.SideResistance, level, confirmsUp(m)))
		} else if dist := math.Abs(price-level) / level; dist <= proximityPct {
			signals = append(signals, proximity("resistance_approach", price, domain.SideResistance, level, dist))
		}
	}

	if sup := row.NearestSupport; sup.Valid && sup.Float64 > 0 {
		level := sup.Float64
		if price < level*(1-breakoutMargin) {
			signals = append(signals, breakout(domain.SignalSell, "down", price, domain.SideSupport, level, confirmsDown(m)))
		} else if dist := math.Abs(price-level) / level; dist <= proximityPct {
			signals = append(signals, proximity("support_approach", price, domain.SideSupport, level, dist))
		}
	}

	return signals
}

func breakout(typ domain.SignalType, dir string, price float64, side domain.Side, level float64, confirmed bool) domain.Signal {
	s := domain.Signal{
		Kind:             "breakout",
		Type:             typ,
		Direction:        dir,
		Strength:         domain.StrengthStrong,
		Confidence:       breakoutConfidence,
		Price:            price,
		ZoneSide:         side,
		ZoneValue:        level,
		DistancePct:      math.Abs(price-level) / level * 100,
		MomentumConfirms: confirmed,
	}
	if !confirmed {
		s.Strength = domain.StrengthModerate
		s.Confidence = weakConfidence
	}
	return s
}

func proximity(dir string, price float64, side domain.Side, level, dist float64) domain.Signal {
	return domain.Signal{
		Kind:        "zone_proximity",
		Type:        domain.SignalAlert,
		Direction:   dir,
		Strength:    domain.StrengthModerate,
		Confidence:  proximityConfidence,
		Price:       price,
		ZoneSide:    side,
		ZoneValue:   level,
		DistancePct: dist * 100,
	}
}

// An unavailable MACD histogram leaves the decision to RSI alone.
func confirmsUp(m indicators.Momentum) bool {
	if math.IsNaN(m.RSI) || m.RSI <= rsiBullish {
		return false
	}
	return math.IsNaN(m.MACDHist) || m.MACDHist > 0
}

func confirmsDown(m indicators.Momentum) bool {
	if math.IsNaN(m.RSI) || m.RSI >= rsiBearish {
		return false
	}
	return math.IsNaN(m.MACDHist) || m.MACDHist < 0
}
