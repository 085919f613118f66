package frontier

import (
	"testing"

	"sweepcore/gridstore"
	"sweepcore/hintbus"
)

func snapshotFrom(region gridstore.Region, symbols []gridstore.Symbol) gridstore.Snapshot {
	w, h := region.Width(), region.Height()
	conf := make([]float32, w*h)
	for i := range conf {
		conf[i] = 1.0
	}
	return gridstore.Snapshot{
		OriginX:    region.XMin,
		OriginY:    region.YMin,
		Width:      w,
		Height:     h,
		Symbols:    symbols,
		Confidence: conf,
		Age:        make([]uint64, w*h),
		Frontier:   make([]bool, w*h),
	}
}

func TestExtractMarksCellsAdjacentToNumbers(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 3, 3)
	// Layout (row-major):
	// Unk Unk Unk
	// Unk  N1 Unk
	// Unk Unk Unk
	symbols := make([]gridstore.Symbol, 9)
	for i := range symbols {
		symbols[i] = gridstore.Unknown
	}
	symbols[4] = gridstore.Number(1) // center cell (1,1)
	snap := snapshotFrom(region, symbols)

	bus := hintbus.New(hintbus.DefaultConfig())
	e := New(bus)

	var updatedMask []bool
	result := e.Extract(region, snap, 1, 1, func(r gridstore.Region, mask []bool) error {
		updatedMask = mask
		return nil
	})

	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if len(result.Cells) != 8 {
		t.Fatalf("expected 8 frontier cells surrounding the single number, got %d", len(result.Cells))
	}
	if updatedMask == nil {
		t.Fatalf("expected the update callback to receive a mask")
	}
	// Center cell itself (index 4) must not be a frontier cell - it's revealed.
	if updatedMask[4] {
		t.Fatalf("revealed center cell must not be marked frontier")
	}
}

func TestExtractPublishesFrontierUpdateHint(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 2, 1)
	symbols := []gridstore.Symbol{gridstore.Number(2), gridstore.Unknown}
	snap := snapshotFrom(region, symbols)

	bus := hintbus.New(hintbus.DefaultConfig())
	e := New(bus)
	e.Extract(region, snap, 0, 0, nil)

	hints := bus.Take(10, 0)
	if len(hints) != 1 || hints[0].Kind != hintbus.FrontierUpdate {
		t.Fatalf("expected exactly one FrontierUpdate hint, got %+v", hints)
	}
	if hints[0].Metadata["frontier_count"] != 1 {
		t.Fatalf("expected frontier_count=1 in metadata, got %+v", hints[0].Metadata)
	}
}

func TestExtractEmptyRegionReturnsErrorNotPanic(t *testing.T) {
	e := New(nil)
	empty := gridstore.Region{XMin: 1, YMin: 1, XMax: 0, YMax: 0} // Empty()==true
	result := e.Extract(empty, gridstore.Snapshot{}, 0, 0, nil)
	if result.Error == "" {
		t.Fatalf("expected an error message for an empty region")
	}
}

func TestFlaggedCellsAreNeverFrontier(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 2, 1)
	symbols := []gridstore.Symbol{gridstore.Number(1), gridstore.Flagged}
	snap := snapshotFrom(region, symbols)

	e := New(nil)
	result := e.Extract(region, snap, 0, 0, nil)

	for _, c := range result.Cells {
		if c.X == 1 && c.Y == 0 {
			t.Fatalf("flagged cell should never be classified as frontier")
		}
	}
}
