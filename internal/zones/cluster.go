package zones

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

const clusterEpsilon = 1e-9

// Cluster is a candidate level: the mean of its member pivot values and the
// member count.
type Cluster struct {
	Center float64
	Count  int
}

// ClusterLevels groups values in one greedy ascending pass. A value joins the
// current cluster when its relative distance to the running mean is within
// pct percent, otherwise it opens a new cluster. Values never rejoin an
// earlier cluster. Non-finite values are ignored.
func ClusterLevels(values []float64, pct float64) []Cluster {
	sorted := lo.Filter(values, func(v float64, _ int) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	})
	if len(sorted) == 0 {
		return nil
	}
	sort.Float64s(sorted)
	threshold := pct / 100.0

	var out []Cluster
	sum, count := sorted[0], 1
	for _, v := range sorted[1:] {
		ref := sum / float64(count)
		if math.Abs(v-ref)/math.Max(ref, clusterEpsilon) <= threshold {
			sum += v
			count++
			continue
		}
		out = append(out, Cluster{Center: sum / float64(count), Count: count})
		sum, count = v, 1
	}
	return append(out, Cluster{Center: sum / float64(count), Count: count})
}

func FilterClusters(clusters []Cluster, minPivots int) []Cluster {
	return lo.Filter(clusters, func(c Cluster, _ int) bool {
		return c.Count >= minPivots
	})
}
