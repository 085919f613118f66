// Package frontier computes the frontier mask (unrevealed cells adjacent
// to a revealed number) over a viewport and publishes hints describing it,
// spec §4.5.
package frontier

import (
	"math"

	"sweepcore/gridstore"
	"sweepcore/hintbus"
)

// Type classifies a frontier cell by priority/neighbor/distance
// thresholds.
type Type int

const (
	ExpansionCandidate Type = iota
	EdgeOfKnown
	AdjacentToNumbers
	HighPriority
)

func (t Type) String() string {
	switch t {
	case HighPriority:
		return "HighPriority"
	case AdjacentToNumbers:
		return "AdjacentToNumbers"
	case EdgeOfKnown:
		return "EdgeOfKnown"
	default:
		return "ExpansionCandidate"
	}
}

// Weights are the default priority-formula weights (w_n, w_d, w_c),
// summing to 1, per spec §4.5.
const (
	WeightNeighbors  = 0.4
	WeightDistance   = 0.3
	WeightConfidence = 0.3
)

// Cell describes a single frontier cell's derived metrics.
type Cell struct {
	X, Y      int
	Neighbors int
	Distance  float64
	Priority  float64
	Type      Type
}

// Result is the outcome of a single Extract call.
type Result struct {
	Region       gridstore.Region
	FrontierMask []bool // row-major over Region, same shape gridstore expects
	Cells        []Cell
	HighPriority []Cell
	Error        string
}

// Extractor computes frontier masks over a GridStore snapshot and keeps a
// reference to the bus it publishes hints to.
type Extractor struct {
	Bus *hintbus.Bus
}

// New returns an Extractor publishing to bus.
func New(bus *hintbus.Bus) *Extractor {
	return &Extractor{Bus: bus}
}

// neighborOffsets are the 8-connected neighbor deltas.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Extract computes the frontier mask for region against snap, publishes a
// FrontierUpdate hint, and writes the frontier array back via update.
// update is called with the region and frontier mask so the caller can
// route it through GridStore.UpdateRegion without this package importing
// *gridstore.Store directly (keeping Extractor decoupled from a concrete
// store implementation, matching the teacher's collaborator-via-interface
// style).
func (e *Extractor) Extract(region gridstore.Region, snap gridstore.Snapshot, viewportCenterX, viewportCenterY int, update func(gridstore.Region, []bool) error) Result {
	defer func() {
		recover() // never raise, per spec §4.5's failure clause
	}()

	if region.Empty() {
		return Result{Error: "InvalidInput: empty region"}
	}

	w, h := region.Width(), region.Height()
	mask := make([]bool, w*h)
	var cells []Cell
	var high []Cell

	for y := region.YMin; y <= region.YMax; y++ {
		for x := region.XMin; x <= region.XMax; x++ {
			idx := (y-region.YMin)*w + (x - region.XMin)

			sym, conf, _, ok := snap.At(x, y)
			if !ok {
				continue
			}
			if sym != gridstore.Unknown && sym != gridstore.Unrevealed {
				continue
			}

			neighbors := 0
			for _, off := range neighborOffsets {
				nsym, _, _, nok := snap.At(x+off[0], y+off[1])
				if nok && nsym.IsNumber() {
					neighbors++
				}
			}
			if neighbors == 0 {
				continue
			}

			mask[idx] = true

			dx := float64(x - viewportCenterX)
			dy := float64(y - viewportCenterY)
			dist := math.Sqrt(dx*dx + dy*dy)

			priority := WeightNeighbors*math.Min(1, float64(neighbors)/8) +
				WeightDistance*math.Max(0, 1-dist/50) +
				WeightConfidence*float64(conf)

			c := Cell{
				X: x, Y: y,
				Neighbors: neighbors,
				Distance:  dist,
				Priority:  priority,
				Type:      classify(priority, neighbors, dist),
			}
			cells = append(cells, c)
			if c.Type == HighPriority {
				high = append(high, c)
			}
		}
	}

	if update != nil {
		if err := update(region, mask); err != nil {
			return Result{Region: region, FrontierMask: mask, Cells: cells, HighPriority: high, Error: err.Error()}
		}
	}

	if e.Bus != nil {
		meta := map[string]any{
			"frontier_count":      len(cells),
			"high_priority_count": len(high),
		}
		e.Bus.Publish(hintbus.Hint{
			Kind:     hintbus.FrontierUpdate,
			Priority: priorityFromCells(high, cells),
			Region:   region,
			Metadata: meta,
		})
	}

	return Result{Region: region, FrontierMask: mask, Cells: cells, HighPriority: high}
}

func classify(priority float64, neighbors int, dist float64) Type {
	switch {
	case priority >= 0.8:
		return HighPriority
	case neighbors >= 3:
		return AdjacentToNumbers
	case dist < 10:
		return EdgeOfKnown
	default:
		return ExpansionCandidate
	}
}

func priorityFromCells(high, all []Cell) float64 {
	if len(high) > 0 {
		return 0.9
	}
	if len(all) > 0 {
		return 0.5
	}
	return 0.1
}
