// Package density computes the density grid and hotspots used by
// PathPlanner to decide where to look next (spec §4.9).
package density

import (
	"fmt"
	"math"

	"sweepcore/gridstore"
)

// Config tunes density analysis, spec §6.4's "Density" option group.
type Config struct {
	HotspotThreshold float64
	EnableClustering bool
	MaxClusters      int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{HotspotThreshold: 0.7, EnableClustering: true, MaxClusters: 8}
}

// Grid is the normalized [0,1] density grid over a region, row-major.
type Grid struct {
	Region gridstore.Region
	Values []float64
}

// At returns the density at (x,y), or 0 if outside Region.
func (g Grid) At(x, y int) float64 {
	if !g.Region.Contains(x, y) {
		return 0
	}
	w := g.Region.Width()
	idx := (y-g.Region.YMin)*w + (x - g.Region.XMin)
	return g.Values[idx]
}

// Hotspot is a single cell (or cluster centroid) at or above the hotspot
// threshold.
type Hotspot struct {
	X, Y    int
	Density float64
}

// RegionStats is a segmented sub-region's statistics, per spec §4.9 step
// 4.
type RegionStats struct {
	Bounds          gridstore.Region
	FrontierDensity float64
	UnknownDensity  float64
	CriticalDensity float64
	ActionDensity   float64
	Complexity      float64
	Priority        float64
}

// Analyzer computes density grids with result caching keyed by
// (shape, unknown_count, frontier_count, origin), per spec §4.9.
type Analyzer struct {
	Cfg Config

	cacheKey    string
	cachedGrid  Grid
	cachedHot   []Hotspot
	cachedStats []RegionStats
}

// New returns an Analyzer with the given config.
func New(cfg Config) *Analyzer {
	return &Analyzer{Cfg: cfg}
}

// Analyze computes the density grid, hotspots, and segmented region
// stats for region against snap, reusing the cached result when the
// cache key is unchanged.
func (a *Analyzer) Analyze(region gridstore.Region, snap gridstore.Snapshot) (Grid, []Hotspot, []RegionStats) {
	unknownCount, frontierCount := countMasks(region, snap)
	key := cacheKeyFor(region, unknownCount, frontierCount)
	if key == a.cacheKey {
		return a.cachedGrid, a.cachedHot, a.cachedStats
	}

	grid := computeDensityGrid(region, snap)
	grid = blurAndNormalize(grid)
	hotspots := extractHotspots(grid, a.Cfg)
	stats := segmentRegions(grid, snap)

	a.cacheKey = key
	a.cachedGrid = grid
	a.cachedHot = hotspots
	a.cachedStats = stats
	return grid, hotspots, stats
}

func cacheKeyFor(region gridstore.Region, unknownCount, frontierCount int) string {
	return fmt.Sprintf("%d,%d,%d,%d|%d,%d|%d", region.XMin, region.YMin, region.Width(), region.Height(), unknownCount, frontierCount, 0)
}

func countMasks(region gridstore.Region, snap gridstore.Snapshot) (unknownCount, frontierCount int) {
	for y := region.YMin; y <= region.YMax; y++ {
		for x := region.XMin; x <= region.XMax; x++ {
			sym, _, frontier, ok := snap.At(x, y)
			if !ok {
				continue
			}
			if sym == gridstore.Unknown || sym == gridstore.Unrevealed {
				unknownCount++
			}
			if frontier {
				frontierCount++
			}
		}
	}
	return
}

// computeDensityGrid implements spec §4.9 step 1:
// base = 0.6*frontier_mask + 0.4*unknown_mask + 0.3*conv3x3(number_mask*confidence)/9.
func computeDensityGrid(region gridstore.Region, snap gridstore.Snapshot) Grid {
	w, h := region.Width(), region.Height()
	values := make([]float64, w*h)

	numberWeighted := make([]float64, w*h)
	for y := region.YMin; y <= region.YMax; y++ {
		for x := region.XMin; x <= region.XMax; x++ {
			idx := (y-region.YMin)*w + (x - region.XMin)
			sym, conf, _, ok := snap.At(x, y)
			if ok && sym.IsNumber() {
				numberWeighted[idx] = float64(conf)
			}
		}
	}

	for y := region.YMin; y <= region.YMax; y++ {
		for x := region.XMin; x <= region.XMax; x++ {
			idx := (y-region.YMin)*w + (x - region.XMin)
			sym, _, frontier, ok := snap.At(x, y)
			if !ok {
				continue
			}

			frontierVal := 0.0
			if frontier {
				frontierVal = 1.0
			}
			unknownVal := 0.0
			if sym == gridstore.Unknown || sym == gridstore.Unrevealed {
				unknownVal = 1.0
			}

			conv := conv3x3Sum(numberWeighted, w, h, x-region.XMin, y-region.YMin)

			values[idx] = 0.6*frontierVal + 0.4*unknownVal + 0.3*conv/9.0
		}
	}

	return Grid{Region: region, Values: values}
}

func conv3x3Sum(values []float64, w, h, cx, cy int) float64 {
	sum := 0.0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= w || y >= h {
				continue
			}
			sum += values[y*w+x]
		}
	}
	return sum
}

// blurAndNormalize applies a Gaussian blur (sigma=1) via a 5x5 kernel,
// then normalizes to [0,1] by dividing by the max value.
func blurAndNormalize(grid Grid) Grid {
	w := grid.Region.Width()
	h := grid.Region.Height()
	kernel := gaussianKernel5(1.0)

	blurred := make([]float64, len(grid.Values))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum, weightSum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sx, sy := x+kx, y+ky
					if sx < 0 || sy < 0 || sx >= w || sy >= h {
						continue
					}
					wgt := kernel[ky+2][kx+2]
					sum += grid.Values[sy*w+sx] * wgt
					weightSum += wgt
				}
			}
			if weightSum > 0 {
				blurred[y*w+x] = sum / weightSum
			}
		}
	}

	maxVal := 0.0
	for _, v := range blurred {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal > 0 {
		for i := range blurred {
			blurred[i] /= maxVal
		}
	}

	return Grid{Region: grid.Region, Values: blurred}
}

func gaussianKernel5(sigma float64) [5][5]float64 {
	var k [5][5]float64
	for y := -2; y <= 2; y++ {
		for x := -2; x <= 2; x++ {
			k[y+2][x+2] = math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma))
		}
	}
	return k
}

// extractHotspots returns every cell at or above the hotspot threshold.
// When more than ~10 hotspots are found and clustering is enabled, they
// are reduced to at most Cfg.MaxClusters centroids via k-means weighted
// by density.
func extractHotspots(grid Grid, cfg Config) []Hotspot {
	var raw []Hotspot
	w := grid.Region.Width()
	for y := 0; y < grid.Region.Height(); y++ {
		for x := 0; x < w; x++ {
			v := grid.Values[y*w+x]
			if v >= cfg.HotspotThreshold {
				raw = append(raw, Hotspot{X: grid.Region.XMin + x, Y: grid.Region.YMin + y, Density: v})
			}
		}
	}

	if len(raw) <= 10 || !cfg.EnableClustering {
		return raw
	}
	return kMeansCluster(raw, cfg.MaxClusters)
}
