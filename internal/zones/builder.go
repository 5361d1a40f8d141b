package zones

import (
	"math"
	"sort"

	"github.com/vitos/crypto_trade_zones/internal/domain"
	"go.uber.org/zap"
)

// mergeValueTol is the relative value distance under which two breaks are
// considered the same level when merging.
const mergeValueTol = 0.01

// Builder turns surviving clusters into the final zone set of a run.
type Builder struct {
	scanner      *Scanner
	bandFor      func(level float64) Band
	n            int
	confirmation int
	opts         Options
	logger       *zap.Logger
}

func NewBuilder(sc *Scanner, n int, confirmation int, bandFor func(level float64) Band, opts Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		scanner:      sc,
		bandFor:      bandFor,
		n:            n,
		confirmation: confirmation,
		opts:         opts,
		logger:       logger,
	}
}

// Build creates base zones active from position 0 until their confirmed
// break, appends polarity zones when enabled, merges near-duplicate breaks and
// assigns stable ids in the final order.
func (b *Builder) Build(support, resistance []Cluster) []domain.Zone {
	zones := make([]domain.Zone, 0, len(support)+len(resistance))
	for _, c := range support {
		zones = append(zones, b.baseZone(domain.SideSupport, c))
	}
	for _, c := range resistance {
		zones = append(zones, b.baseZone(domain.SideResistance, c))
	}

	if b.opts.EnablePolarity {
		base := len(zones)
		for i := 0; i < base; i++ {
			if rev, ok := b.reversal(zones[i]); ok {
				zones = append(zones, rev)
			}
		}
	}

	zones = b.merge(zones)
	for i := range zones {
		zones[i].ID = i
	}
	return zones
}

func (b *Builder) baseZone(side domain.Side, c Cluster) domain.Zone {
	x1, _ := b.scanner.FindBreak(c.Center, breakDirection(side), 0, b.bandFor(c.Center), b.confirmation)
	return b.clamp(domain.Zone{
		Side:     side,
		Value:    c.Center,
		X0:       0,
		X1:       x1,
		Strength: c.Count,
	})
}

// reversal flips a broken zone to the opposite side after the cooldown. Zones
// that were never broken, or whose reversal would start past the series end,
// produce nothing.
func (b *Builder) reversal(z domain.Zone) (domain.Zone, bool) {
	if z.X1 >= b.n-1 {
		return domain.Zone{}, false
	}
	start := z.X1 + 1 + b.opts.PolarityCooldown
	if start >= b.n {
		return domain.Zone{}, false
	}

	side := z.Side.Opposite()
	end := b.n - 1
	if !b.opts.EternalPolarity {
		if x1, found := b.scanner.FindBreak(z.Value, breakDirection(side), start, b.bandFor(z.Value), 1); found {
			end = x1
		}
	}

	if b.logger.Core().Enabled(zap.DebugLevel) {
		b.logger.Debug("Polarity zone created",
			zap.String("from", string(z.Side)),
			zap.String("to", string(side)),
			zap.Stringer("exit", breakDirection(side)),
			zap.Float64("value", z.Value),
			zap.Int("x0", start),
			zap.Int("x1", end),
			zap.Bool("eternal", b.opts.EternalPolarity))
	}

	return b.clamp(domain.Zone{
		Side:       side,
		Value:      z.Value,
		X0:         start,
		X1:         end,
		Strength:   z.Strength,
		IsReversal: true,
	}), true
}

// clamp enforces 0 <= x0 <= x1 <= N-1.
func (b *Builder) clamp(z domain.Zone) domain.Zone {
	z.X0 = min(max(z.X0, 0), b.n-1)
	z.X1 = min(max(z.X1, z.X0), b.n-1)
	return z
}

// merge sorts zones by (x1, side, value) and drops a zone when its immediate
// predecessor in that order is on the same side, ends within
// MergeBreaksMinSep candles of it and sits within 1% in value. The
// predecessor's x1 is extended to cover the dropped zone. Each comparison uses
// the predecessor's own x1, so a chain collapses onto its first zone.
func (b *Builder) merge(zones []domain.Zone) []domain.Zone {
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].X1 != zones[j].X1 {
			return zones[i].X1 < zones[j].X1
		}
		if zones[i].Side != zones[j].Side {
			return zones[i].Side.Sign() < zones[j].Side.Sign()
		}
		return zones[i].Value < zones[j].Value
	})
	if len(zones) == 0 || b.opts.MergeBreaksMinSep <= 0 {
		return zones
	}

	drop := make([]bool, len(zones))
	for j := 1; j < len(zones); j++ {
		prev, curr := zones[j-1], zones[j]
		if curr.Side == prev.Side && curr.X1-prev.X1 <= b.opts.MergeBreaksMinSep &&
			math.Abs(curr.Value-prev.Value)/math.Max(curr.Value, clusterEpsilon) < mergeValueTol {
			zones[j-1].X1 = max(prev.X1, curr.X1)
			drop[j] = true
		}
	}

	kept := zones[:0]
	for j, z := range zones {
		if !drop[j] {
			kept = append(kept, z)
		}
	}
	return kept
}
