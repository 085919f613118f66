package csp

import "sweepcore/gridstore"

// SegmentConfig bounds the size of accepted components, spec §4.6.
type SegmentConfig struct {
	MinSize int
	MaxSize int
}

// DefaultSegmentConfig returns the documented defaults (1, 50).
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{MinSize: 1, MaxSize: 50}
}

var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Segment labels 8-connected components of unknown/unrevealed frontier
// cells from snap restricted to region, and builds each component's
// adjacent-number map. countFlaggedNeighbors reports, for a number cell coord,
// how many of its 8-neighbors are currently Flagged (used to adjust the
// expected mine count).
func Segment(region gridstore.Region, snap gridstore.Snapshot, cfg SegmentConfig) []Component {
	visited := make(map[Coord]bool)
	var components []Component
	nextID := 0

	for y := region.YMin; y <= region.YMax; y++ {
		for x := region.XMin; x <= region.XMax; x++ {
			start := Coord{x, y}
			if visited[start] {
				continue
			}
			sym, _, frontierFlag, ok := snap.At(x, y)
			if !ok || !frontierFlag || !isUnknownLike(sym) {
				visited[start] = true
				continue
			}

			cells := floodFill(start, region, snap, visited)
			if len(cells) < cfg.MinSize || len(cells) > cfg.MaxSize {
				continue
			}

			numberCells := adjacentNumberCells(cells, snap)
			bounds := boundsOf(cells)
			complexity := computeComplexity(cells, numberCells, snap)

			c := Component{
				ID:          nextID,
				Cells:       cells,
				NumberCells: numberCells,
				Bounds:      bounds,
				Complexity:  complexity,
				Priority:    componentPriority(len(cells), numberCells),
				Type:        classifyComponent(len(cells), complexity),
			}
			components = append(components, c)
			nextID++
		}
	}
	return components
}

func isUnknownLike(sym gridstore.Symbol) bool {
	return sym == gridstore.Unknown || sym == gridstore.Unrevealed
}

func floodFill(start Coord, region gridstore.Region, snap gridstore.Snapshot, visited map[Coord]bool) []Coord {
	stack := []Coord{start}
	visited[start] = true
	var cells []Coord

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cells = append(cells, c)

		for _, off := range neighborOffsets {
			n := Coord{c.X + off[0], c.Y + off[1]}
			if !region.Contains(n.X, n.Y) || visited[n] {
				continue
			}
			sym, _, frontierFlag, ok := snap.At(n.X, n.Y)
			if !ok || !frontierFlag || !isUnknownLike(sym) {
				continue
			}
			visited[n] = true
			stack = append(stack, n)
		}
	}
	return cells
}

// adjacentNumberCells finds every revealed numbered cell 8-adjacent to
// some cell in cells, mapping it to its expected mine count (its number
// value minus already-flagged neighbors).
func adjacentNumberCells(cells []Coord, snap gridstore.Snapshot) map[Coord]int {
	set := make(map[Coord]bool, len(cells))
	for _, c := range cells {
		set[c] = true
	}

	result := make(map[Coord]int)
	seen := make(map[Coord]bool)
	for _, c := range cells {
		for _, off := range neighborOffsets {
			n := Coord{c.X + off[0], c.Y + off[1]}
			if seen[n] {
				continue
			}
			sym, _, _, ok := snap.At(n.X, n.Y)
			if !ok || !sym.IsNumber() {
				continue
			}
			seen[n] = true
			flagged := countFlaggedNeighbors(n, snap)
			result[n] = sym.NumberValue() - flagged
		}
	}
	return result
}

func countFlaggedNeighbors(c Coord, snap gridstore.Snapshot) int {
	count := 0
	for _, off := range neighborOffsets {
		sym, _, _, ok := snap.At(c.X+off[0], c.Y+off[1])
		if ok && sym == gridstore.Flagged {
			count++
		}
	}
	return count
}

func boundsOf(cells []Coord) gridstore.Region {
	if len(cells) == 0 {
		return gridstore.Region{}
	}
	xMin, yMin := cells[0].X, cells[0].Y
	xMax, yMax := cells[0].X, cells[0].Y
	for _, c := range cells {
		if c.X < xMin {
			xMin = c.X
		}
		if c.X > xMax {
			xMax = c.X
		}
		if c.Y < yMin {
			yMin = c.Y
		}
		if c.Y > yMax {
			yMax = c.Y
		}
	}
	return gridstore.Region{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}
}

// computeComplexity combines number-to-unknown ratio, average number
// value, and size into a [0,1]-ish score, per spec §3.5.
func computeComplexity(cells []Coord, numberCells map[Coord]int, snap gridstore.Snapshot) float64 {
	if len(cells) == 0 {
		return 0
	}
	ratio := float64(len(numberCells)) / float64(len(cells))

	var sumValue float64
	n := 0
	for coord := range numberCells {
		sym, _, _, ok := snap.At(coord.X, coord.Y)
		if ok && sym.IsNumber() {
			sumValue += float64(sym.NumberValue())
			n++
		}
	}
	avgValue := 0.0
	if n > 0 {
		avgValue = sumValue / float64(n) / 8.0 // normalize against max cell value
	}

	sizeFactor := float64(len(cells)) / 50.0
	if sizeFactor > 1 {
		sizeFactor = 1
	}

	complexity := 0.4*ratio + 0.3*avgValue + 0.3*sizeFactor
	if complexity > 1 {
		complexity = 1
	}
	return complexity
}

func componentPriority(size int, numberCells map[Coord]int) float64 {
	if size == 0 {
		return 0
	}
	return float64(len(numberCells)) / float64(size)
}

func classifyComponent(size int, complexity float64) ComponentType {
	if size == 0 {
		return Trivial
	}
	switch {
	case complexity < 0.3:
		return CSPSolvable
	case complexity < 0.7:
		return MonteCarlo
	default:
		return NeuralAssist
	}
}
