package pathplan

import (
	"testing"

	"sweepcore/density"
	"sweepcore/gridstore"
)

func TestBarycenterTargetsWeightedCentroid(t *testing.T) {
	p := New(Barycenter)
	hotspots := []density.Hotspot{
		{X: 10, Y: 10, Density: 0.9},
		{X: 12, Y: 10, Density: 0.9},
	}

	mv := p.Plan(hotspots, 0, 0)

	if mv.TargetRegion == nil {
		t.Fatal("expected a target region")
	}
	if mv.TargetRegion.XMin != 11 {
		t.Fatalf("expected centroid x=11 for two equal-weight hotspots at 10 and 12, got %d", mv.TargetRegion.XMin)
	}
}

func TestBarycenterClampsToMaxStepSize(t *testing.T) {
	p := New(Barycenter)
	hotspots := []density.Hotspot{{X: 1000, Y: 0, Density: 1.0}}

	mv := p.Plan(hotspots, 0, 0)

	if mv.DX != maxStepSize {
		t.Fatalf("expected dx clamped to %d, got %d", maxStepSize, mv.DX)
	}
}

func TestHighestDensityPicksDensestHotspot(t *testing.T) {
	p := New(HighestDensity)
	hotspots := []density.Hotspot{
		{X: 5, Y: 5, Density: 0.4},
		{X: 50, Y: 50, Density: 0.95},
	}

	mv := p.Plan(hotspots, 0, 0)

	if mv.TargetRegion.XMin != 50 || mv.TargetRegion.YMin != 50 {
		t.Fatalf("expected target at densest hotspot (50,50), got (%d,%d)", mv.TargetRegion.XMin, mv.TargetRegion.YMin)
	}
}

func TestBlockedZonesAreDroppedFromCandidates(t *testing.T) {
	p := New(HighestDensity)
	p.ReportZone(gridstore.NewRegion(45, 45, 10, 10), Blocked)

	hotspots := []density.Hotspot{
		{X: 50, Y: 50, Density: 0.99}, // inside the blocked zone
		{X: 5, Y: 5, Density: 0.4},
	}

	mv := p.Plan(hotspots, 0, 0)

	if mv.TargetRegion.XMin != 5 {
		t.Fatalf("expected the blocked hotspot to be dropped, target should be (5,5), got (%d,%d)", mv.TargetRegion.XMin, mv.TargetRegion.YMin)
	}
}

func TestCriticalZoneBoostsPriorityOverHigherRawDensity(t *testing.T) {
	p := New(HighestDensity)
	p.ReportZone(gridstore.NewRegion(5, 5, 2, 2), Critical)

	hotspots := []density.Hotspot{
		{X: 5, Y: 5, Density: 0.6}, // boosted 1.5x -> 0.9
		{X: 50, Y: 50, Density: 0.8},
	}

	mv := p.Plan(hotspots, 0, 0)

	if mv.TargetRegion.XMin != 5 {
		t.Fatalf("expected critical-zone boost to win, got target (%d,%d)", mv.TargetRegion.XMin, mv.TargetRegion.YMin)
	}
}

func TestSlidingWindowIgnoresHotspotsOutsideWindow(t *testing.T) {
	p := New(SlidingWindow)
	hotspots := []density.Hotspot{
		{X: 10, Y: 0, Density: 0.9},
		{X: 1000, Y: 0, Density: 0.99},
	}

	mv := p.Plan(hotspots, 0, 0)

	if mv.TargetRegion.XMin != 10 {
		t.Fatalf("expected the out-of-window hotspot to be ignored, got target (%d,%d)", mv.TargetRegion.XMin, mv.TargetRegion.YMin)
	}
}

func TestAdaptiveChoosesSlidingWindowWhenManyHotspots(t *testing.T) {
	var hotspots []density.Hotspot
	for i := 0; i < 20; i++ {
		hotspots = append(hotspots, density.Hotspot{X: i, Y: 0, Density: 0.75})
	}
	strategy := chooseAdaptiveStrategy(hotspots)
	if strategy != SlidingWindow {
		t.Fatalf("expected sliding_window for a heavy frontier of hotspots, got %v", strategy)
	}
}

func TestAdaptiveChoosesHighestDensityWhenSparseButPeaked(t *testing.T) {
	hotspots := []density.Hotspot{
		{X: 0, Y: 0, Density: 0.05},
		{X: 1, Y: 1, Density: 0.05},
		{X: 2, Y: 2, Density: 0.05},
		{X: 3, Y: 3, Density: 0.05},
		{X: 4, Y: 4, Density: 0.95},
	}
	strategy := chooseAdaptiveStrategy(hotspots)
	if strategy != HighestDensity {
		t.Fatalf("expected highest_density for a sparse-but-peaked set, got %v", strategy)
	}
}

func TestPlanReturnsEmptyReasonWhenAllCandidatesBlocked(t *testing.T) {
	p := New(Barycenter)
	p.ReportZone(gridstore.NewRegion(0, 0, 100, 100), Blocked)
	mv := p.Plan([]density.Hotspot{{X: 5, Y: 5, Density: 0.9}}, 0, 0)

	if mv.TargetRegion != nil {
		t.Fatal("expected no target region when every candidate is blocked")
	}
}
