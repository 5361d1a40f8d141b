package zones

import "github.com/vitos/crypto_trade_zones/internal/domain"

// DetectPivots labels position i a high pivot when High[i] is the maximum of
// High over [i-w, i+w], a low pivot when Low[i] is the minimum of Low over the
// same window, and None when both or neither hold. Positions closer than w to
// either edge are None. A non-finite High in the window rules out a high
// pivot and a non-finite Low rules out a low pivot.
func DetectPivots(s domain.Series, w int) []domain.PivotLabel {
	n := s.Len()
	labels := make([]domain.PivotLabel, n)
	if w < 1 {
		w = 1
	}
	for i := w; i < n-w; i++ {
		hi, lo := true, true
		for j := i - w; j <= i+w; j++ {
			if h := s.High[j]; !domain.IsFinite(h) || h > s.High[i] {
				hi = false
			}
			if l := s.Low[j]; !domain.IsFinite(l) || l < s.Low[i] {
				lo = false
			}
			if !hi && !lo {
				break
			}
		}
		switch {
		case hi && lo:
			labels[i] = domain.PivotNone
		case hi:
			labels[i] = domain.PivotHigh
		case lo:
			labels[i] = domain.PivotLow
		}
	}
	return labels
}

// pivotValues splits pivot prices by side: lows feed support, highs feed
// resistance.
func pivotValues(s domain.Series, labels []domain.PivotLabel) (support, resistance []float64) {
	for i, l := range labels {
		switch l {
		case domain.PivotLow:
			support = append(support, s.Low[i])
		case domain.PivotHigh:
			resistance = append(resistance, s.High[i])
		}
	}
	return support, resistance
}
