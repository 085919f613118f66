package actionqueue

import (
	"math"
	"sort"
)

// orderByCluster groups actions into spatial clusters (cells within
// radius of each other), then flattens clusters back into a single
// execution order: within a cluster, all Flags precede Reveals/Guesses,
// and ties are broken by distance from the cluster's centroid, per spec
// §4.7.
func orderByCluster(actions []*QueuedAction, radius float64) []*QueuedAction {
	clusters := groupByDistance(actions, radius)

	var out []*QueuedAction
	for _, cluster := range clusters {
		cx, cy := centroid(cluster)
		sort.SliceStable(cluster, func(i, j int) bool {
			ki, kj := clusterRank(cluster[i].Action.Kind), clusterRank(cluster[j].Action.Kind)
			if ki != kj {
				return ki < kj
			}
			return distance(cluster[i].Action.Coord, cx, cy) < distance(cluster[j].Action.Coord, cx, cy)
		})
		out = append(out, cluster...)
	}
	return out
}

// clusterRank orders Flag before Reveal before Guess within a cluster.
func clusterRank(k Kind) int {
	switch k {
	case Flag:
		return 0
	case Reveal:
		return 1
	default:
		return 2
	}
}

// groupByDistance clusters actions with simple single-linkage grouping:
// two actions belong to the same cluster if their Euclidean distance is
// within radius of any existing member.
func groupByDistance(actions []*QueuedAction, radius float64) [][]*QueuedAction {
	assigned := make([]bool, len(actions))
	var clusters [][]*QueuedAction

	for i := range actions {
		if assigned[i] {
			continue
		}
		cluster := []*QueuedAction{actions[i]}
		assigned[i] = true

		// Expand until no more members are within radius of the growing
		// cluster (transitive closure over the radius graph).
		changed := true
		for changed {
			changed = false
			for j := range actions {
				if assigned[j] {
					continue
				}
				for _, member := range cluster {
					if coordDistance(member.Action.Coord, actions[j].Action.Coord) <= radius {
						cluster = append(cluster, actions[j])
						assigned[j] = true
						changed = true
						break
					}
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func coordDistance(a, b Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func distance(c Coord, cx, cy float64) float64 {
	dx := float64(c.X) - cx
	dy := float64(c.Y) - cy
	return math.Sqrt(dx*dx + dy*dy)
}

func centroid(actions []*QueuedAction) (float64, float64) {
	if len(actions) == 0 {
		return 0, 0
	}
	var sumX, sumY float64
	for _, a := range actions {
		sumX += float64(a.Action.Coord.X)
		sumY += float64(a.Action.Coord.Y)
	}
	n := float64(len(actions))
	return sumX / n, sumY / n
}
