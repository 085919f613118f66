package density

import (
	"testing"

	"sweepcore/gridstore"
)

func snapshotFrom(region gridstore.Region, symbols []gridstore.Symbol, frontier []bool) gridstore.Snapshot {
	w, h := region.Width(), region.Height()
	conf := make([]float32, w*h)
	for i := range conf {
		conf[i] = 1.0
	}
	if frontier == nil {
		frontier = make([]bool, w*h)
	}
	return gridstore.Snapshot{
		OriginX:    region.XMin,
		OriginY:    region.YMin,
		Width:      w,
		Height:     h,
		Symbols:    symbols,
		Confidence: conf,
		Age:        make([]uint64, w*h),
		Frontier:   frontier,
	}
}

func TestComputeDensityGridWeightsFrontierUnknownAndNumbers(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 2, 2) // width=2, height=2
	symbols := []gridstore.Symbol{
		gridstore.Number(1), gridstore.Unknown,
		gridstore.Unknown, gridstore.Empty,
	}
	frontier := []bool{false, true, true, false}
	snap := snapshotFrom(region, symbols, frontier)

	grid := computeDensityGrid(region, snap)

	// Cell (1,0) is frontier + unknown, adjacent to the number cell.
	v := grid.At(1, 0)
	if v <= 0 {
		t.Fatalf("expected positive density for frontier/unknown cell, got %v", v)
	}
	// The revealed empty cell with no frontier/unknown contribution should
	// still pick up some density from the neighboring number cell via the
	// 3x3 convolution, but strictly less than the unknown+frontier cell.
	empty := grid.At(1, 1)
	if empty >= v {
		t.Fatalf("expected empty non-frontier cell density (%v) to be lower than frontier/unknown cell (%v)", empty, v)
	}
}

func TestBlurAndNormalizeKeepsValuesInUnitRange(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 5, 5)
	values := make([]float64, 25)
	values[12] = 1.0 // center spike
	grid := Grid{Region: region, Values: values}

	blurred := blurAndNormalize(grid)

	maxVal := 0.0
	for _, v := range blurred.Values {
		if v < 0 {
			t.Fatalf("blurred density must stay non-negative, got %v", v)
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal != 1.0 {
		t.Fatalf("expected normalized max of 1.0, got %v", maxVal)
	}
}

func TestExtractHotspotsFiltersByThreshold(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 3, 1)
	grid := Grid{Region: region, Values: []float64{0.9, 0.2, 0.1}}

	hotspots := extractHotspots(grid, Config{HotspotThreshold: 0.7, EnableClustering: true, MaxClusters: 8})

	if len(hotspots) != 1 {
		t.Fatalf("expected exactly 1 hotspot above threshold, got %d", len(hotspots))
	}
	if hotspots[0].X != 0 || hotspots[0].Y != 0 {
		t.Fatalf("expected hotspot at origin cell, got (%d,%d)", hotspots[0].X, hotspots[0].Y)
	}
}

func TestExtractHotspotsClustersWhenManyFound(t *testing.T) {
	w, h := 5, 5
	region := gridstore.NewRegion(0, 0, w, h)
	values := make([]float64, w*h)
	for i := range values {
		values[i] = 0.8 // every cell a hotspot: 25 total, above the 10 cutoff
	}
	grid := Grid{Region: region, Values: values}

	hotspots := extractHotspots(grid, Config{HotspotThreshold: 0.7, EnableClustering: true, MaxClusters: 4})

	if len(hotspots) != 4 {
		t.Fatalf("expected clustering to reduce to MaxClusters=4, got %d", len(hotspots))
	}
}

func TestAnalyzeReusesCacheWhenKeyUnchanged(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 3, 3)
	symbols := make([]gridstore.Symbol, 9)
	for i := range symbols {
		symbols[i] = gridstore.Unknown
	}
	snap := snapshotFrom(region, symbols, nil)

	a := New(DefaultConfig())
	grid1, hot1, stats1 := a.Analyze(region, snap)
	grid2, hot2, stats2 := a.Analyze(region, snap)

	if len(grid1.Values) != len(grid2.Values) {
		t.Fatalf("expected identical cached grid dimensions")
	}
	if len(hot1) != len(hot2) || len(stats1) != len(stats2) {
		t.Fatalf("expected identical cached hotspot/stats counts across repeated Analyze calls")
	}
	if a.cacheKey == "" {
		t.Fatal("expected Analyze to populate a cache key")
	}
}

func TestSegmentRegionsProducesStatsForLargeDenseBlock(t *testing.T) {
	w, h := 6, 6
	region := gridstore.NewRegion(0, 0, w, h)
	symbols := make([]gridstore.Symbol, w*h)
	frontier := make([]bool, w*h)
	for i := range symbols {
		symbols[i] = gridstore.Unknown
		frontier[i] = true
	}
	snap := snapshotFrom(region, symbols, frontier)

	values := make([]float64, w*h)
	for i := range values {
		values[i] = 0.9
	}
	grid := Grid{Region: region, Values: values}

	stats := segmentRegions(grid, snap)

	if len(stats) != 1 {
		t.Fatalf("expected a single segmented region for a uniformly dense block, got %d", len(stats))
	}
	if stats[0].FrontierDensity != 1.0 {
		t.Fatalf("expected full frontier density, got %v", stats[0].FrontierDensity)
	}
	if stats[0].UnknownDensity != 1.0 {
		t.Fatalf("expected full unknown density, got %v", stats[0].UnknownDensity)
	}
}

func TestSegmentRegionsDropsComponentsBelowMinimumSize(t *testing.T) {
	w, h := 4, 4
	region := gridstore.NewRegion(0, 0, w, h)
	symbols := make([]gridstore.Symbol, w*h)
	for i := range symbols {
		symbols[i] = gridstore.Unknown
	}
	snap := snapshotFrom(region, symbols, nil)

	values := make([]float64, w*h)
	values[0] = 0.9 // single isolated high-density cell, below minSegmentSize=5

	grid := Grid{Region: region, Values: values}
	stats := segmentRegions(grid, snap)

	if len(stats) != 0 {
		t.Fatalf("expected no segmented region below minSegmentSize, got %d", len(stats))
	}
}

func TestPercentile70IgnoresZeroValues(t *testing.T) {
	values := []float64{0, 0, 0.2, 0.4, 0.6, 0.8, 1.0}
	p := percentile70(values)
	if p <= 0 {
		t.Fatalf("expected a positive percentile, got %v", p)
	}
}

func TestKMeansClusterReturnsInputWhenUnderK(t *testing.T) {
	points := []Hotspot{{X: 0, Y: 0, Density: 0.8}, {X: 1, Y: 1, Density: 0.9}}
	result := kMeansCluster(points, 8)
	if len(result) != 2 {
		t.Fatalf("expected k-means to pass through inputs at or under k, got %d", len(result))
	}
}
