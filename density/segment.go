package density

import (
	"sort"

	"sweepcore/gridstore"
)

var neighborOffsets8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

const minSegmentSize = 5

// segmentRegions labels 8-connected components of cells at or above the
// 70th percentile of positive density, producing per-region statistics,
// per spec §4.9 step 4.
func segmentRegions(grid Grid, snap gridstore.Snapshot) []RegionStats {
	threshold := percentile70(grid.Values)
	w := grid.Region.Width()
	h := grid.Region.Height()

	visited := make([]bool, len(grid.Values))
	var stats []RegionStats

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || grid.Values[idx] < threshold || grid.Values[idx] <= 0 {
				visited[idx] = true
				continue
			}

			cells := floodFillAboveThreshold(grid, visited, x, y, threshold)
			if len(cells) < minSegmentSize {
				continue
			}
			stats = append(stats, statsForCells(grid, snap, cells))
		}
	}
	return stats
}

func floodFillAboveThreshold(grid Grid, visited []bool, startX, startY int, threshold float64) [][2]int {
	w := grid.Region.Width()
	h := grid.Region.Height()
	stack := [][2]int{{startX, startY}}
	visited[startY*w+startX] = true
	var cells [][2]int

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cells = append(cells, c)

		for _, off := range neighborOffsets8 {
			nx, ny := c[0]+off[0], c[1]+off[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			idx := ny*w + nx
			if visited[idx] || grid.Values[idx] < threshold {
				continue
			}
			visited[idx] = true
			stack = append(stack, [2]int{nx, ny})
		}
	}
	return cells
}

func statsForCells(grid Grid, snap gridstore.Snapshot, cells [][2]int) RegionStats {
	xMin, yMin := cells[0][0], cells[0][1]
	xMax, yMax := cells[0][0], cells[0][1]

	var frontierCount, unknownCount, criticalCount int
	var densitySum float64

	for _, c := range cells {
		if c[0] < xMin {
			xMin = c[0]
		}
		if c[0] > xMax {
			xMax = c[0]
		}
		if c[1] < yMin {
			yMin = c[1]
		}
		if c[1] > yMax {
			yMax = c[1]
		}

		gx, gy := grid.Region.XMin+c[0], grid.Region.YMin+c[1]
		sym, _, frontier, ok := snap.At(gx, gy)
		if !ok {
			continue
		}
		if frontier {
			frontierCount++
		}
		if sym == gridstore.Unknown || sym == gridstore.Unrevealed {
			unknownCount++
		}
		if sym.IsNumber() {
			criticalCount++
		}
		densitySum += grid.Values[c[1]*grid.Region.Width()+c[0]]
	}

	n := float64(len(cells))
	bounds := gridstore.Region{
		XMin: grid.Region.XMin + xMin, YMin: grid.Region.YMin + yMin,
		XMax: grid.Region.XMin + xMax, YMax: grid.Region.YMin + yMax,
	}

	frontierDensity := float64(frontierCount) / n
	unknownDensity := float64(unknownCount) / n
	criticalDensity := float64(criticalCount) / n
	actionDensity := 1 - unknownDensity // proxy: revealed fraction available for action

	complexity := 0.5*frontierDensity + 0.3*criticalDensity + 0.2*unknownDensity
	priority := densitySum / n

	return RegionStats{
		Bounds:          bounds,
		FrontierDensity: frontierDensity,
		UnknownDensity:  unknownDensity,
		CriticalDensity: criticalDensity,
		ActionDensity:   actionDensity,
		Complexity:      complexity,
		Priority:        priority,
	}
}

// percentile70 returns the 70th percentile of the strictly positive
// values in vs (zeros are excluded, per spec §4.9's "70th percentile of
// positive density").
func percentile70(vs []float64) float64 {
	var positive []float64
	for _, v := range vs {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return 0
	}
	sorted := append([]float64(nil), positive...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)-1) * 0.70)
	return sorted[idx]
}
