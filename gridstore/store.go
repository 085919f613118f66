package gridstore

import (
	"sync"
	"time"
)

// ChangeType tags what kind of write produced a DirtyEntry.
type ChangeType int

const (
	ChangeSymbols ChangeType = iota
	ChangeConfidence
	ChangeFrontier
	ChangeMixed
)

func (c ChangeType) String() string {
	switch c {
	case ChangeSymbols:
		return "symbols"
	case ChangeConfidence:
		return "confidence"
	case ChangeFrontier:
		return "frontier"
	default:
		return "mixed"
	}
}

// DirtyEntry records that a region was written, and when, and how.
type DirtyEntry struct {
	Region    Region
	Timestamp time.Time
	Change    ChangeType
}

// minGrowPad is the amortized padding applied on every growth, in cells,
// along all four edges of the grown area. This keeps a stream of
// small nearby writes from repeatedly reallocating the backing arrays.
const minGrowPad = 16

// Store is the sparse, unbounded, coordinate-addressed grid described in
// spec §3.2/§4.1. All operations are serialized by a single RWMutex;
// SolverView takes a copy-on-read snapshot so callers may hold it without
// blocking subsequent writers.
type Store struct {
	mu sync.RWMutex

	bounds Region // meaningful only when hasCells is true
	hasCells bool

	symbols    []Symbol
	confidence []float32
	age        []uint64
	frontier   []bool

	dirty []DirtyEntry

	// tick is a monotonic counter bumped on every write that touches age;
	// it stands in for the wall-clock "tick index" spec §3.2 describes.
	tick uint64
}

// New returns an empty, extensible Store. If initial is non-nil the store
// is pre-sized to that region (all cells Unknown/0/0/false).
func New(initial *Region) *Store {
	s := &Store{}
	if initial != nil && !initial.Empty() {
		s.allocate(*initial)
	}
	return s
}

func (s *Store) allocate(b Region) {
	w, h := b.Width(), b.Height()
	symbols := make([]Symbol, w*h)
	for i := range symbols {
		symbols[i] = Unknown
	}
	confidence := make([]float32, w*h)
	age := make([]uint64, w*h)
	frontier := make([]bool, w*h)

	if s.hasCells {
		// Blit old contents into the new, larger arrays at the correct offset.
		ow, _ := s.bounds.Width(), s.bounds.Height()
		offX := s.bounds.XMin - b.XMin
		offY := s.bounds.YMin - b.YMin
		for y := 0; y < s.bounds.Height(); y++ {
			srcRow := y * ow
			dstRow := (y + offY) * w
			for x := 0; x < ow; x++ {
				si := srcRow + x
				di := dstRow + (x + offX)
				symbols[di] = s.symbols[si]
				confidence[di] = s.confidence[si]
				age[di] = s.age[si]
				frontier[di] = s.frontier[si]
			}
		}
	}

	s.bounds = b
	s.hasCells = true
	s.symbols = symbols
	s.confidence = confidence
	s.age = age
	s.frontier = frontier
}

// growTo ensures the backing arrays cover region, growing (with amortized
// padding) if any corner of region currently falls outside bounds.
func (s *Store) growTo(region Region) {
	if !s.hasCells {
		padded := Region{
			XMin: region.XMin - minGrowPad,
			YMin: region.YMin - minGrowPad,
			XMax: region.XMax + minGrowPad,
			YMax: region.YMax + minGrowPad,
		}
		s.allocate(padded)
		return
	}
	if s.bounds.XMin <= region.XMin && s.bounds.XMax >= region.XMax &&
		s.bounds.YMin <= region.YMin && s.bounds.YMax >= region.YMax {
		return
	}
	union := Union(s.bounds, region)
	padded := Region{
		XMin: union.XMin - minGrowPad,
		YMin: union.YMin - minGrowPad,
		XMax: union.XMax + minGrowPad,
		YMax: union.YMax + minGrowPad,
	}
	s.allocate(padded)
}

func (s *Store) index(x, y int) int {
	return (y-s.bounds.YMin)*s.bounds.Width() + (x - s.bounds.XMin)
}

// UpdateRegion writes the provided sub-arrays (row-major, y then x, sized
// region.Width()*region.Height()) at region, growing the store if needed.
// Any of symbols/confidence/frontier may be nil to skip that array.
// dirtyMask (same shape, row-major) selects which cells get their age
// bumped; nil means "bump the whole region". Returns ErrShapeMismatch if a
// supplied array's length disagrees with region's area.
func (s *Store) UpdateRegion(
	region Region,
	symbols []Symbol,
	confidence []float32,
	frontier []bool,
	dirtyMask []bool,
) error {
	if region.Empty() {
		return nil
	}
	area := region.Area()
	if symbols != nil && len(symbols) != area {
		return ErrShapeMismatch
	}
	if confidence != nil && len(confidence) != area {
		return ErrShapeMismatch
	}
	if frontier != nil && len(frontier) != area {
		return ErrShapeMismatch
	}
	if dirtyMask != nil && len(dirtyMask) != area {
		return ErrShapeMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.growTo(region)
	s.tick++

	w := region.Width()
	touched := 0
	for ly := 0; ly < region.Height(); ly++ {
		gy := region.YMin + ly
		for lx := 0; lx < w; lx++ {
			gx := region.XMin + lx
			li := ly*w + lx
			gi := s.index(gx, gy)

			if symbols != nil {
				s.symbols[gi] = symbols[li]
			}
			if confidence != nil {
				s.confidence[gi] = confidence[li]
			}
			if frontier != nil {
				s.frontier[gi] = frontier[li]
			}

			bump := dirtyMask == nil || dirtyMask[li]
			if bump {
				s.age[gi] = s.tick
				touched++
			}
		}
	}

	s.dirty = append(s.dirty, DirtyEntry{
		Region:    region,
		Timestamp: time.Now(),
		Change:    changeType(symbols, confidence, frontier),
	})

	return nil
}

func changeType(symbols []Symbol, confidence []float32, frontier []bool) ChangeType {
	n := 0
	var last ChangeType
	if symbols != nil {
		n++
		last = ChangeSymbols
	}
	if confidence != nil {
		n++
		last = ChangeConfidence
	}
	if frontier != nil {
		n++
		last = ChangeFrontier
	}
	if n == 1 {
		return last
	}
	return ChangeMixed
}

// RegionData is an independent copy of a rectangular slice of the grid.
type RegionData struct {
	Region     Region
	Symbols    []Symbol
	Confidence []float32
	Age        []uint64
	Frontier   []bool
}

// GetRegion returns independent copies of the four arrays over region. Cells
// outside the store's current bounds (if region extends past them) read as
// the zero values (Unknown, 0, 0, false).
func (s *Store) GetRegion(region Region) RegionData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, h := region.Width(), region.Height()
	out := RegionData{
		Region:     region,
		Symbols:    make([]Symbol, w*h),
		Confidence: make([]float32, w*h),
		Age:        make([]uint64, w*h),
		Frontier:   make([]bool, w*h),
	}
	for i := range out.Symbols {
		out.Symbols[i] = Unknown
	}

	if !s.hasCells {
		return out
	}

	for ly := 0; ly < h; ly++ {
		gy := region.YMin + ly
		if gy < s.bounds.YMin || gy > s.bounds.YMax {
			continue
		}
		for lx := 0; lx < w; lx++ {
			gx := region.XMin + lx
			if gx < s.bounds.XMin || gx > s.bounds.XMax {
				continue
			}
			li := ly*w + lx
			gi := s.index(gx, gy)
			out.Symbols[li] = s.symbols[gi]
			out.Confidence[li] = s.confidence[gi]
			out.Age[li] = s.age[gi]
			out.Frontier[li] = s.frontier[gi]
		}
	}
	return out
}

// GetCell returns a single cell's state.
func (s *Store) GetCell(x, y int) (symbol Symbol, confidence float32, age uint64, frontier bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasCells || !s.bounds.Contains(x, y) {
		return Unknown, 0, 0, false
	}
	i := s.index(x, y)
	return s.symbols[i], s.confidence[i], s.age[i], s.frontier[i]
}

// SetCell is the single-cell convenience write; it grows the store if
// needed and always bumps age.
func (s *Store) SetCell(x, y int, symbol Symbol, confidence float32, frontier bool) {
	region := Region{XMin: x, YMin: y, XMax: x, YMax: y}
	_ = s.UpdateRegion(region, []Symbol{symbol}, []float32{confidence}, []bool{frontier}, nil)
}

// Bounds returns the allocated inclusive rectangle. It covers every index
// ever written plus the amortized growth padding, and is never trimmed.
// Before the first write it is Region{}.
func (s *Store) Bounds() Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// DirtyRegions returns dirty entries recorded since the given time (nil
// means "all of them").
func (s *Store) DirtyRegions(since *time.Time) []DirtyEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if since == nil {
		out := make([]DirtyEntry, len(s.dirty))
		copy(out, s.dirty)
		return out
	}
	var out []DirtyEntry
	for _, d := range s.dirty {
		if d.Timestamp.After(*since) {
			out = append(out, d)
		}
	}
	return out
}

// ClearDirty empties the dirty-region list.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = s.dirty[:0]
}

// Stats summarizes the current grid composition, used by density analysis
// and observability.
type Stats struct {
	Revealed   int
	Unrevealed int
	Frontier   int
	Total      int
}

// Stats computes revealed/unrevealed/frontier counts over the whole store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	st.Total = len(s.symbols)
	for i, sym := range s.symbols {
		if sym.IsRevealed() {
			st.Revealed++
		} else {
			st.Unrevealed++
		}
		if s.frontier[i] {
			st.Frontier++
		}
	}
	return st
}
