package zones

import "github.com/vitos/crypto_trade_zones/internal/domain"

type Direction int

const (
	// Up breaks a resistance.
	Up Direction = iota + 1
	// Down breaks a support.
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// breakDirection is the direction that invalidates a zone of the given side.
func breakDirection(side domain.Side) Direction {
	if side == domain.SideSupport {
		return Down
	}
	return Up
}

// Scanner finds confirmed breaks of a level over one series.
type Scanner struct {
	series       domain.Series
	useCloseOnly bool
}

func NewScanner(s domain.Series, useCloseOnly bool) *Scanner {
	return &Scanner{series: s, useCloseOnly: useCloseOnly}
}

func (sc *Scanner) price(i int, dir Direction) float64 {
	if sc.useCloseOnly {
		return sc.series.Close[i]
	}
	if dir == Up {
		return sc.series.High[i]
	}
	return sc.series.Low[i]
}

// FindBreak scans i = start..N-1 and counts consecutive candles whose price is
// beyond level±band. When the count first reaches k it returns
// max(start, i-k), the last position the zone is still active. found is false
// when no break is confirmed, in which case the index is N-1.
func (sc *Scanner) FindBreak(level float64, dir Direction, start int, band Band, k int) (last int, found bool) {
	n := sc.series.Len()
	if start >= n {
		return n - 1, false
	}
	if start < 0 {
		start = 0
	}
	if k < 1 {
		k = 1
	}

	count := 0
	for i := start; i < n; i++ {
		p := sc.price(i, dir)
		b := band.At(i)
		var broken bool
		if dir == Up {
			broken = p > level+b
		} else {
			broken = p < level-b
		}
		if !broken {
			count = 0
			continue
		}
		count++
		if count >= k {
			return max(start, i-k), true
		}
	}
	return n - 1, false
}
