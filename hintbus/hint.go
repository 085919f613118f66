// Package hintbus implements the priority event queue and cell-cluster
// registry shared across the pipeline (spec §4.2, §3.3): a bounded heap of
// Hints ordered by (priority desc, timestamp asc), and a bounded map of
// Clusters, both pruned by a TTL.
package hintbus

import (
	"time"

	"sweepcore/gridstore"
)

// Kind tags what a Hint describes.
type Kind int

const (
	DirtyRegion Kind = iota
	FrontierUpdate
	ClusterDiscovery
	PriorityHint
	SolverFeedback
)

func (k Kind) String() string {
	switch k {
	case DirtyRegion:
		return "DirtyRegion"
	case FrontierUpdate:
		return "FrontierUpdate"
	case ClusterDiscovery:
		return "ClusterDiscovery"
	case PriorityHint:
		return "PriorityHint"
	case SolverFeedback:
		return "SolverFeedback"
	default:
		return "Unknown"
	}
}

// Hint is a priority-tagged event describing an interesting state change.
type Hint struct {
	Kind      Kind
	Priority  float64
	Timestamp time.Time
	Region    gridstore.Region
	Metadata  map[string]any
}

// Coord is a grid coordinate, used as a cluster member/map key.
type Coord struct{ X, Y int }

// ClusterKind free-form tags what produced a cluster ("frontier",
// "action-batch", "density-hotspot", ...); the spec does not constrain the
// set of values.
type ClusterKind string

// Cluster groups related cells discovered together.
type Cluster struct {
	ID        string
	Cells     map[Coord]struct{}
	Center    Coord
	Bounds    gridstore.Region
	Priority  float64
	Kind      ClusterKind
	CreatedAt time.Time
}

// Density returns |cells| / area(bounds), per spec §3.3.
func (c Cluster) Density() float64 {
	area := c.Bounds.Area()
	if area <= 0 {
		return 0
	}
	return float64(len(c.Cells)) / float64(area)
}

func centerAndBounds(cells []Coord) (Coord, gridstore.Region) {
	if len(cells) == 0 {
		return Coord{}, gridstore.Region{}
	}
	xMin, yMin := cells[0].X, cells[0].Y
	xMax, yMax := cells[0].X, cells[0].Y
	sumX, sumY := 0, 0
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
		sumX += c.X
		sumY += c.Y
	}
	center := Coord{X: sumX / len(cells), Y: sumY / len(cells)}
	bounds := gridstore.Region{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}
	return center, bounds
}
