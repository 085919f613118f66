package agent

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"sweepcore/config"
	"sweepcore/csp"
	"sweepcore/driver"
	"sweepcore/gridstore"
	"sweepcore/patchsource"
)

func flatScreenshot(w, h int, gray uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: gray})
		}
	}
	return img
}

func TestTickCompletesFullPipelineWithoutError(t *testing.T) {
	screen := flatScreenshot(320, 320, 180) // uniform, low variance -> classifies Empty
	d := driver.NewNull(0, 0, 10, 10, screen)

	core := New(config.Default(), nil, Deps{Driver: d})

	result, err := core.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick returned an error: %v", err)
	}
	if result.PatchCount == 0 {
		t.Fatal("expected at least one patch extracted from a 10x10 viewport")
	}
	if result.ActionsQueued != 0 {
		t.Fatalf("expected no actions queued for an all-empty grid, got %d", result.ActionsQueued)
	}

	st := core.Grid().Stats()
	if st.Revealed == 0 {
		t.Fatal("expected the grid to have revealed cells after classification")
	}

	x, y, _, _, _ := d.CurrentViewport(context.Background())
	if x != 0 || y != 0 {
		t.Fatalf("expected viewport unchanged with no hotspots to chase, got (%d,%d)", x, y)
	}
}

func TestTickDegradesGracefullyOnDriverError(t *testing.T) {
	core := New(config.Default(), nil, Deps{Driver: failingDriver{}})

	result, err := core.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick should absorb a soft driver failure, got error: %v", err)
	}
	if result.PatchCount != 0 {
		t.Fatalf("expected zero patches when the viewport can't be read, got %d", result.PatchCount)
	}
}

type failingDriver struct{ driver.BrowserDriver }

func (failingDriver) CurrentViewport(ctx context.Context) (int, int, int, int, error) {
	return 0, 0, 0, 0, errViewport
}

var errViewport = errors.New("viewport unavailable")

func TestToSolverActionsPreservesKindAndCoord(t *testing.T) {
	in := []csp.Action{
		{Kind: csp.Flag, Coord: csp.Coord{X: 3, Y: 4}, Confidence: 1.0, Reasoning: "mine in all solutions", Engine: "csp"},
	}
	out := toSolverActions(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 converted action, got %d", len(out))
	}
	if out[0].Coord.X != 3 || out[0].Coord.Y != 4 {
		t.Fatalf("expected coord (3,4) preserved, got %+v", out[0].Coord)
	}
	if out[0].Kind.String() != "Flag" {
		t.Fatalf("expected Flag kind preserved, got %v", out[0].Kind)
	}
}

func TestClassifyPatchesFillsSymbolsAtViewportRelativeIndices(t *testing.T) {
	core := New(config.Default(), nil, Deps{Driver: driver.NewNull(0, 0, 3, 3, nil)})
	viewport := gridstore.NewRegion(0, 0, 3, 3)

	flat := flatScreenshot(10, 10, 180)
	patches := []patchsource.Patch{
		{Kind: patchsource.Cell, Pixels: flat, GridX: 1, GridY: 1},
	}

	symbols, _ := core.classifyPatches(viewport, patches)
	idx := 1*viewport.Width() + 1
	if symbols[idx] != gridstore.Empty {
		t.Fatalf("expected cell (1,1) classified Empty from a flat patch, got %v", symbols[idx])
	}
	if symbols[0] != gridstore.Unknown {
		t.Fatalf("expected untouched cells to remain Unknown, got %v", symbols[0])
	}
}
