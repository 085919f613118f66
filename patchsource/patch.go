// Package patchsource adapts a screenshot and a viewport region into a
// stream of per-cell image patches aligned with GridStore coordinates
// (spec §4.3).
package patchsource

import (
	"image"

	"sweepcore/gridstore"
)

// Kind tags what an ImagePatch represents.
type Kind int

const (
	Cell Kind = iota
	RegionPatch
	Viewport
	FrontierCell
)

func (k Kind) String() string {
	switch k {
	case Cell:
		return "Cell"
	case RegionPatch:
		return "Region"
	case Viewport:
		return "Viewport"
	case FrontierCell:
		return "FrontierCell"
	default:
		return "Unknown"
	}
}

// Patch is a view over a screenshot for a single grid cell. Pixels are
// borrowed from the source image, not copied, per spec §3.4.
type Patch struct {
	Kind       Kind
	Pixels     image.Image
	GridX      int
	GridY      int
	Confidence float64
	Metadata   map[string]any
}

// Mask is a pixel-space boolean mask; true means "excluded" (e.g. browser
// chrome, interface overlays).
type Mask interface {
	At(x, y int) bool
}

// Source extracts per-cell patches from a screenshot.
type Source struct {
	CellSize int
	Margin   int
}

// New returns a Source with the given cell size (in pixels) and patch
// margin.
func New(cellSize, margin int) *Source {
	return &Source{CellSize: cellSize, Margin: margin}
}

// invalidInputMetadata is attached to the empty-result sentinel returned on
// malformed input, per spec §4.3's "Failure" clause.
func invalidInputMetadata(reason string) map[string]any {
	return map[string]any{"error": "InvalidInput", "reason": reason}
}

// cellPixelRect computes the pixel subrectangle for grid cell (x,y),
// expanded by margin on every side.
func (s *Source) cellPixelRect(x, y int) image.Rectangle {
	px := x * s.CellSize
	py := y * s.CellSize
	return image.Rect(px-s.Margin, py-s.Margin, px+s.CellSize+s.Margin, py+s.CellSize+s.Margin)
}

// cornersMasked reports whether any of the rectangle's four corners are
// excluded by mask.
func cornersMasked(r image.Rectangle, mask Mask) bool {
	if mask == nil {
		return false
	}
	corners := [4][2]int{
		{r.Min.X, r.Min.Y},
		{r.Max.X - 1, r.Min.Y},
		{r.Min.X, r.Max.Y - 1},
		{r.Max.X - 1, r.Max.Y - 1},
	}
	for _, c := range corners {
		if mask.At(c[0], c[1]) {
			return true
		}
	}
	return false
}

// Extract yields a Cell patch for every (x,y) in viewport. The margin is
// clipped to the screenshot bounds; a cell is skipped only when the cell
// itself lies outside the screenshot or its clipped rectangle is masked at
// any corner. Returns (nil, metadata) with an InvalidInput entry on
// malformed input.
func (s *Source) Extract(screenshot image.Image, viewport gridstore.Region, mask Mask) ([]Patch, map[string]any) {
	if screenshot == nil {
		return nil, invalidInputMetadata("nil screenshot")
	}
	if viewport.Empty() {
		return nil, invalidInputMetadata("empty viewport region")
	}
	if s.CellSize <= 0 {
		return nil, invalidInputMetadata("non-positive cell size")
	}

	bounds := screenshot.Bounds()
	var patches []Patch
	for y := viewport.YMin; y <= viewport.YMax; y++ {
		for x := viewport.XMin; x <= viewport.XMax; x++ {
			rect := s.cellPixelRect(x, y)
			if !rect.Inset(s.Margin).In(bounds) {
				continue
			}
			rect = rect.Intersect(bounds)
			if cornersMasked(rect, mask) {
				continue
			}
			sub := subImage(screenshot, rect)
			patches = append(patches, Patch{
				Kind:       Cell,
				Pixels:     sub,
				GridX:      x,
				GridY:      y,
				Confidence: varianceConfidence(sub),
			})
		}
	}
	return patches, nil
}

// ExtractFrontier behaves like Extract but yields only cells whose local
// position is frontier-true in frontierMask (row-major over viewport).
func (s *Source) ExtractFrontier(screenshot image.Image, viewport gridstore.Region, mask Mask, frontierMask []bool) ([]Patch, map[string]any) {
	if screenshot == nil {
		return nil, invalidInputMetadata("nil screenshot")
	}
	if viewport.Empty() {
		return nil, invalidInputMetadata("empty viewport region")
	}
	if len(frontierMask) != viewport.Width()*viewport.Height() {
		return nil, invalidInputMetadata("frontier mask shape mismatch")
	}

	bounds := screenshot.Bounds()
	var patches []Patch
	w := viewport.Width()
	for y := viewport.YMin; y <= viewport.YMax; y++ {
		for x := viewport.XMin; x <= viewport.XMax; x++ {
			idx := (y-viewport.YMin)*w + (x - viewport.XMin)
			if !frontierMask[idx] {
				continue
			}
			rect := s.cellPixelRect(x, y)
			if !rect.Inset(s.Margin).In(bounds) {
				continue
			}
			rect = rect.Intersect(bounds)
			if cornersMasked(rect, mask) {
				continue
			}
			sub := subImage(screenshot, rect)
			patches = append(patches, Patch{
				Kind:       FrontierCell,
				Pixels:     sub,
				GridX:      x,
				GridY:      y,
				Confidence: varianceConfidence(sub),
			})
		}
	}
	return patches, nil
}

// subImage returns a sub-image sharing the original's pixel storage when
// the concrete type supports it (image/draw's SubImage convention),
// falling back to a pixel-by-pixel copy otherwise.
func subImage(img image.Image, r image.Rectangle) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Set(x-r.Min.X, y-r.Min.Y, img.At(x, y))
		}
	}
	return dst
}
