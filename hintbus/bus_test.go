package hintbus

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"sweepcore/gridstore"
)

func TestTakeOrdersByPriorityThenAge(t *testing.T) {
	Convey("Given a bus with hints of mixed priority and age", t, func() {
		b := New(DefaultConfig())

		old := Hint{Kind: PriorityHint, Priority: 0.5, Timestamp: time.Now().Add(-time.Minute)}
		new_ := Hint{Kind: PriorityHint, Priority: 0.5, Timestamp: time.Now()}
		high := Hint{Kind: PriorityHint, Priority: 0.9, Timestamp: time.Now()}

		b.Publish(old)
		b.Publish(new_)
		b.Publish(high)

		Convey("Take returns highest priority first, oldest-first among ties", func() {
			out := b.Take(3, 0)
			So(len(out), ShouldEqual, 3)
			So(out[0].Priority, ShouldEqual, 0.9)
			So(out[1].Timestamp.Before(out[2].Timestamp), ShouldBeTrue)
		})
	})
}

func TestTakeRespectsMinPriority(t *testing.T) {
	Convey("Given hints above and below a threshold", t, func() {
		b := New(DefaultConfig())
		b.Publish(Hint{Kind: PriorityHint, Priority: 0.2})
		b.Publish(Hint{Kind: PriorityHint, Priority: 0.8})

		Convey("Take(n, 0.5) only returns the hint meeting the floor", func() {
			out := b.Take(10, 0.5)
			So(len(out), ShouldEqual, 1)
			So(out[0].Priority, ShouldEqual, 0.8)
		})
	})
}

func TestPublishEvictsLowestPriorityWhenFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHints = 2

	b := New(cfg)
	b.Publish(Hint{Kind: PriorityHint, Priority: 0.1})
	b.Publish(Hint{Kind: PriorityHint, Priority: 0.9})
	b.Publish(Hint{Kind: PriorityHint, Priority: 0.5})

	if b.Len() != 2 {
		t.Fatalf("expected bus capped at 2 hints, got %d", b.Len())
	}
	out := b.Take(2, 0)
	if out[0].Priority != 0.9 || out[1].Priority != 0.5 {
		t.Fatalf("expected 0.1-priority hint evicted, got %+v", out)
	}
}

func TestCreateClusterPublishesDiscoveryHint(t *testing.T) {
	b := New(DefaultConfig())
	cells := []Coord{{0, 0}, {1, 0}, {0, 1}}

	id := b.CreateCluster(cells, ClusterKind("frontier"), 0.6, map[string]any{"source": "test"})
	if id == "" {
		t.Fatalf("expected a non-empty cluster id")
	}

	clusters := b.ClustersByKind(nil)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Center != (Coord{X: 0, Y: 0}) {
		t.Fatalf("unexpected cluster center: %+v", clusters[0].Center)
	}

	discovered := b.Take(1, 0)
	if len(discovered) != 1 || discovered[0].Kind != ClusterDiscovery {
		t.Fatalf("expected a ClusterDiscovery hint, got %+v", discovered)
	}
	if discovered[0].Metadata["cluster_id"] != id {
		t.Fatalf("expected discovery hint to carry cluster id in metadata")
	}
}

func TestClustersByKindFilters(t *testing.T) {
	b := New(DefaultConfig())
	b.CreateCluster([]Coord{{0, 0}}, ClusterKind("frontier"), 0.5, nil)
	b.CreateCluster([]Coord{{5, 5}}, ClusterKind("density-hotspot"), 0.5, nil)

	frontierKind := ClusterKind("frontier")
	frontier := b.ClustersByKind(&frontierKind)
	if len(frontier) != 1 || frontier[0].Kind != frontierKind {
		t.Fatalf("expected exactly 1 frontier cluster, got %+v", frontier)
	}

	all := b.ClustersByKind(nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 clusters unfiltered, got %d", len(all))
	}
}

func TestMarkProcessedDropsOverlappingHints(t *testing.T) {
	b := New(DefaultConfig())
	inside := gridstore.NewRegion(0, 0, 5, 5)
	outside := gridstore.NewRegion(100, 100, 5, 5)

	b.Publish(Hint{Kind: DirtyRegion, Priority: 0.5, Region: inside})
	b.Publish(Hint{Kind: DirtyRegion, Priority: 0.5, Region: outside})

	b.MarkProcessed(gridstore.NewRegion(0, 0, 10, 10))

	remaining := b.Take(10, 0)
	if len(remaining) != 1 {
		t.Fatalf("expected 1 surviving hint, got %d", len(remaining))
	}
	if !remaining[0].Region.Contains(100, 100) {
		t.Fatalf("expected the outside-region hint to survive, got %+v", remaining[0].Region)
	}
}

func TestMarkProcessedIsIdempotent(t *testing.T) {
	b := New(DefaultConfig())
	region := gridstore.NewRegion(0, 0, 5, 5)
	b.Publish(Hint{Kind: DirtyRegion, Priority: 0.5, Region: region})

	b.MarkProcessed(region)
	b.MarkProcessed(region)

	if b.Len() != 0 {
		t.Fatalf("expected 0 hints after repeated MarkProcessed, got %d", b.Len())
	}
}

func TestSolverFeedbackDownweightsOverlappingClusters(t *testing.T) {
	Convey("Given a cluster overlapping a solved region", t, func() {
		b := New(DefaultConfig())
		region := gridstore.NewRegion(0, 0, 3, 3)
		id := b.CreateCluster([]Coord{{1, 1}}, ClusterKind("frontier"), 1.0, nil)

		Convey("SolverFeedback with a high success rate halves its priority", func() {
			b.SolverFeedback(region, 1.0, nil)

			var found Cluster
			for _, c := range b.ClustersByKind(nil) {
				if c.ID == id {
					found = c
				}
			}
			So(found.Priority, ShouldAlmostEqual, 0.5, 0.0001)
		})

		Convey("SolverFeedback also publishes a SolverFeedback hint", func() {
			b.SolverFeedback(region, 0.8, map[string]any{"attempts": 3})
			hints := b.Take(10, 0)

			found := false
			for _, h := range hints {
				if h.Kind == SolverFeedback {
					found = true
					if h.Metadata["attempts"] != 3 {
						t.Fatalf("expected feedback metadata to be preserved")
					}
				}
			}
			if !found {
				t.Fatalf("expected a SolverFeedback hint to be published")
			}
		})
	})
}

func TestClusterDensity(t *testing.T) {
	c := Cluster{
		Cells:  map[Coord]struct{}{{0, 0}: {}, {1, 0}: {}},
		Bounds: gridstore.NewRegion(0, 0, 2, 1),
	}
	if got := c.Density(); got != 1.0 {
		t.Fatalf("expected density 1.0 for a fully occupied 2x1 region, got %v", got)
	}
}
