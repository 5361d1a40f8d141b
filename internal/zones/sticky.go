package zones

import (
	"math"
	"sort"

	"github.com/samber/lo"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"go.uber.org/zap"
)

type candidate struct {
	id       int
	value    float64
	strength int
	distance float64
}

// Assigner sweeps candles in order and fills up to maxZones slots per side,
// keeping a slot on its previous level for as long as that level stays
// active.
type Assigner struct {
	maxZones   int
	levelTol   float64
	hysteresis float64
	logger     *zap.Logger
}

func NewAssigner(maxZones int, levelTolPct, hysteresisRatio float64, logger *zap.Logger) *Assigner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{
		maxZones:   max(maxZones, 1),
		levelTol:   levelTolPct / 100.0,
		hysteresis: hysteresisRatio,
		logger:     logger,
	}
}

// SameLevel reports whether a and b differ by at most level_tol_pct of the
// larger one. Non-finite inputs never match.
func (a *Assigner) SameLevel(x, y float64) bool {
	if !domain.IsFinite(x) || !domain.IsFinite(y) {
		return false
	}
	return math.Abs(x-y) <= math.Max(x, y)*a.levelTol
}

type sideState struct {
	active map[int]domain.Zone
	prev   []domain.NullFloat
}

// Assign produces one row per candle. pivots may be nil.
func (a *Assigner) Assign(s domain.Series, zones []domain.Zone, pivots []domain.PivotLabel) []domain.AssignmentRow {
	n := s.Len()
	byStart := make(map[int][]domain.Zone)
	byEnd := make(map[int][]domain.Zone)
	for _, z := range zones {
		byStart[z.X0] = append(byStart[z.X0], z)
		byEnd[z.X1] = append(byEnd[z.X1], z)
	}

	states := map[domain.Side]*sideState{
		domain.SideSupport:    {active: make(map[int]domain.Zone), prev: make([]domain.NullFloat, a.maxZones)},
		domain.SideResistance: {active: make(map[int]domain.Zone), prev: make([]domain.NullFloat, a.maxZones)},
	}

	rows := make([]domain.AssignmentRow, n)
	for i := 0; i < n; i++ {
		for _, z := range byStart[i] {
			states[z.Side].active[z.ID] = z
		}
		for _, z := range byEnd[i-1] {
			delete(states[z.Side].active, z.ID)
		}

		price := s.Close[i]
		row := domain.AssignmentRow{
			Index:      i,
			Close:      price,
			Support:    a.assignSide(i, states[domain.SideSupport], price),
			Resistance: a.assignSide(i, states[domain.SideResistance], price),
		}
		if s.Time != nil {
			row.Time = s.Time[i]
		}
		if pivots != nil {
			row.Pivot = pivots[i]
		}
		row.NearestSupport = nearest(row.Support, price)
		row.NearestResistance = nearest(row.Resistance, price)
		rows[i] = row
	}
	return rows
}

// rank orders active zones by strength desc, distance to price asc, value asc
// and finally id, so equal keys resolve deterministically.
func rank(active map[int]domain.Zone, price float64) []candidate {
	cands := make([]candidate, 0, len(active))
	for _, z := range active {
		d := math.Abs(z.Value - price)
		if math.IsNaN(d) {
			d = math.Inf(1)
		}
		cands = append(cands, candidate{id: z.ID, value: z.Value, strength: z.Strength, distance: d})
	}
	sort.Slice(cands, func(i, j int) bool {
		ci, cj := cands[i], cands[j]
		if ci.strength != cj.strength {
			return ci.strength > cj.strength
		}
		if ci.distance != cj.distance {
			return ci.distance < cj.distance
		}
		if ci.value != cj.value {
			return ci.value < cj.value
		}
		return ci.id < cj.id
	})
	return cands
}

func (a *Assigner) assignSide(i int, st *sideState, price float64) []domain.NullFloat {
	cands := rank(st.active, price)
	out := make([]domain.NullFloat, a.maxZones)
	var used []float64

	for k := range out {
		var val domain.NullFloat
		if len(cands) > 0 {
			if prev := st.prev[k]; prev.Valid {
				val = domain.Some(a.choose(i, k, prev.Float64, cands, price))
			} else {
				val = domain.Some(cands[0].value)
			}

			if c, ok := lo.Find(cands, func(c candidate) bool { return a.SameLevel(val.Float64, c.value) }); ok {
				used = append(used, c.value)
			}
			cands = lo.Reject(cands, func(c candidate, _ int) bool {
				return lo.ContainsBy(used, func(u float64) bool { return a.SameLevel(c.value, u) })
			})
		}
		out[k] = val
		st.prev[k] = val
	}
	return out
}

// choose keeps prev while any remaining candidate is the same level,
// regardless of rank. Otherwise prev has left the pool and the slot moves to
// the best remaining candidate.
func (a *Assigner) choose(i, k int, prev float64, cands []candidate, price float64) float64 {
	if c, ok := lo.Find(cands, func(c candidate) bool { return a.SameLevel(prev, c.value) }); ok {
		return c.value
	}

	best := cands[0]
	if ce := a.logger.Check(zap.DebugLevel, "Slot switched"); ce != nil {
		ce.Write(
			zap.Int("candle", i),
			zap.Int("slot", k+1),
			zap.Float64("from", prev),
			zap.Float64("to", best.value),
			zap.Bool("below_hysteresis", best.distance >= (1-a.hysteresis)*math.Abs(prev-price)))
	}
	return best.value
}

// nearest returns the assigned value closest to price, the first slot winning
// ties. Absent when no slot has a value or price is not finite.
func nearest(values []domain.NullFloat, price float64) domain.NullFloat {
	if !domain.IsFinite(price) {
		return domain.NullFloat{}
	}
	var out domain.NullFloat
	bestDist := math.Inf(1)
	for _, v := range values {
		if !v.Valid {
			continue
		}
		if d := math.Abs(v.Float64 - price); d < bestDist {
			bestDist = d
			out = v
		}
	}
	return out
}
