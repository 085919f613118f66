package gridstore

import "time"

// Snapshot is a consistent, independent copy of the whole grid, returned
// by SolverView. It is a value type: safe to hand to a solver goroutine
// while writers continue to mutate the Store.
type Snapshot struct {
	OriginX, OriginY int
	Width, Height    int
	Symbols          []Symbol
	Confidence       []float32
	Age              []uint64
	Frontier         []bool
	LastUpdate       time.Time
}

// At returns the symbol/confidence/frontier for (x,y), or the zero values
// if the coordinate lies outside the snapshot.
func (sn Snapshot) At(x, y int) (symbol Symbol, confidence float32, frontier bool, ok bool) {
	lx, ly := x-sn.OriginX, y-sn.OriginY
	if lx < 0 || ly < 0 || lx >= sn.Width || ly >= sn.Height {
		return Unknown, 0, false, false
	}
	i := ly*sn.Width + lx
	return sn.Symbols[i], sn.Confidence[i], sn.Frontier[i], true
}

// Region returns the inclusive bounds covered by the snapshot.
func (sn Snapshot) Region() Region {
	if sn.Width == 0 || sn.Height == 0 {
		return Region{XMin: sn.OriginX, YMin: sn.OriginY, XMax: sn.OriginX - 1, YMax: sn.OriginY - 1}
	}
	return Region{
		XMin: sn.OriginX,
		YMin: sn.OriginY,
		XMax: sn.OriginX + sn.Width - 1,
		YMax: sn.OriginY + sn.Height - 1,
	}
}

// SolverView returns a consistent snapshot of the grid. The snapshot is a
// deep copy: subsequent writes to the Store never mutate it.
//
// No snapshot is cached: every call copies the four arrays afresh under
// the read lock.
func (s *Store) SolverView() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasCells {
		return Snapshot{LastUpdate: time.Now()}
	}

	w, h := s.bounds.Width(), s.bounds.Height()
	sn := Snapshot{
		OriginX:    s.bounds.XMin,
		OriginY:    s.bounds.YMin,
		Width:      w,
		Height:     h,
		Symbols:    make([]Symbol, w*h),
		Confidence: make([]float32, w*h),
		Age:        make([]uint64, w*h),
		Frontier:   make([]bool, w*h),
		LastUpdate: time.Now(),
	}
	copy(sn.Symbols, s.symbols)
	copy(sn.Confidence, s.confidence)
	copy(sn.Age, s.age)
	copy(sn.Frontier, s.frontier)
	return sn
}
