package density

import "math"

// kMeansCluster reduces a list of hotspots to at most k weighted
// centroids (weighted by density), per spec §4.9 step 3. A small fixed
// iteration count is used since this runs over at most a few hundred
// hotspot cells per tick.
func kMeansCluster(points []Hotspot, k int) []Hotspot {
	if k <= 0 || len(points) <= k {
		return points
	}

	centroids := make([]Hotspot, k)
	// Deterministic seeding: take every len(points)/k-th point rather
	// than a random draw, so repeated calls on identical input are
	// reproducible.
	step := len(points) / k
	for i := 0; i < k; i++ {
		centroids[i] = points[i*step]
	}

	const iterations = 10
	assignments := make([]int, len(points))
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for c, centroid := range centroids {
				d := sqDist(p, centroid)
				if d < bestDist {
					bestDist = d
					best = c
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		sumX := make([]float64, k)
		sumY := make([]float64, k)
		sumW := make([]float64, k)
		count := make([]int, k)
		for i, p := range points {
			c := assignments[i]
			w := p.Density
			sumX[c] += float64(p.X) * w
			sumY[c] += float64(p.Y) * w
			sumW[c] += w
			count[c]++
		}
		for c := range centroids {
			if sumW[c] == 0 {
				continue
			}
			centroids[c] = Hotspot{
				X:       int(math.Round(sumX[c] / sumW[c])),
				Y:       int(math.Round(sumY[c] / sumW[c])),
				Density: sumW[c] / float64(count[c]),
			}
		}

		if !changed {
			break
		}
	}

	return centroids
}

func sqDist(a, b Hotspot) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}
