package hintbus

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"sweepcore/gridstore"
)

// DefaultTTL is the age at which hints and clusters become eligible for
// pruning, per spec §3.3.
const DefaultTTL = 5 * time.Minute

// DefaultCleanupInterval bounds how often the periodic prune actually
// does work, even if callers poll more often than that.
const DefaultCleanupInterval = 10 * time.Second

// Config tunes Bus capacity and pruning, mapping directly onto the "Hints"
// group of spec §6.4.
type Config struct {
	MaxHints            int
	MaxClusters         int
	TTL                 time.Duration
	CleanupIntervalSecs int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxHints:            2048,
		MaxClusters:         512,
		TTL:                 DefaultTTL,
		CleanupIntervalSecs: int(DefaultCleanupInterval / time.Second),
	}
}

// Bus is the shared priority event queue and cluster registry. All
// operations are guarded by a single mutex. Heap pushes and pops are
// O(log n); capacity eviction, MarkProcessed, DirtyRegions and the TTL
// cleanup scan every queued hint.
type Bus struct {
	mu sync.Mutex

	cfg Config

	hints    hintHeap
	clusters map[string]Cluster
	// clusterOrder preserves insertion order so "oldest-low-priority"
	// eviction has a cheap tie-break when priorities are equal.
	clusterOrder []string

	nextClusterID uint64
	lastCleanup   time.Time
}

// New returns an empty Bus.
func New(cfg Config) *Bus {
	b := &Bus{
		cfg:         cfg,
		clusters:    make(map[string]Cluster),
		lastCleanup: time.Now(),
	}
	heap.Init(&b.hints)
	return b
}

// Publish adds a hint to the bus, evicting the lowest-priority existing
// hint if the bus is at capacity.
func (b *Bus) Publish(h Hint) {
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleanupLocked()

	heap.Push(&b.hints, h)
	if len(b.hints) > b.cfg.MaxHints {
		idx := b.hints.lowestPriorityIndex()
		removeAt(&b.hints, idx)
	}
}

// Take pops up to maxCount hints with priority >= minPriority, in
// (priority desc, timestamp asc) order, removing them from the bus.
func (b *Bus) Take(maxCount int, minPriority float64) []Hint {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Hint
	for len(out) < maxCount && len(b.hints) > 0 {
		top := b.hints[0]
		if top.Priority < minPriority {
			break
		}
		out = append(out, heap.Pop(&b.hints).(Hint))
	}
	return out
}

// CreateCluster registers a new cluster of cells and returns its id.
func (b *Bus) CreateCluster(cells []Coord, kind ClusterKind, priority float64, meta map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cleanupLocked()

	b.nextClusterID++
	id := fmt.Sprintf("cluster-%d", b.nextClusterID)

	set := make(map[Coord]struct{}, len(cells))
	for _, c := range cells {
		set[c] = struct{}{}
	}
	center, bounds := centerAndBounds(cells)

	b.clusters[id] = Cluster{
		ID:        id,
		Cells:     set,
		Center:    center,
		Bounds:    bounds,
		Priority:  priority,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	b.clusterOrder = append(b.clusterOrder, id)

	if len(b.clusters) > b.cfg.MaxClusters {
		b.evictOldestLowestLocked()
	}

	b.publishClusterDiscoveryLocked(id, priority, bounds, meta)

	return id
}

func (b *Bus) publishClusterDiscoveryLocked(id string, priority float64, bounds gridstore.Region, meta map[string]any) {
	m := map[string]any{"cluster_id": id}
	for k, v := range meta {
		m[k] = v
	}
	heap.Push(&b.hints, Hint{
		Kind:      ClusterDiscovery,
		Priority:  priority,
		Timestamp: time.Now(),
		Region:    bounds,
		Metadata:  m,
	})
	if len(b.hints) > b.cfg.MaxHints {
		idx := b.hints.lowestPriorityIndex()
		removeAt(&b.hints, idx)
	}
}

// evictOldestLowestLocked drops the oldest cluster among those whose
// priority equals the lowest priority, per spec §4.2's "oldest-low-priority
// clusters drop".
func (b *Bus) evictOldestLowestLocked() {
	if len(b.clusterOrder) == 0 {
		return
	}
	minPriority := -1.0
	for _, id := range b.clusterOrder {
		c, ok := b.clusters[id]
		if !ok {
			continue
		}
		if minPriority < 0 || c.Priority < minPriority {
			minPriority = c.Priority
		}
	}
	for i, id := range b.clusterOrder {
		c, ok := b.clusters[id]
		if !ok {
			continue
		}
		if c.Priority == minPriority {
			delete(b.clusters, id)
			b.clusterOrder = append(b.clusterOrder[:i], b.clusterOrder[i+1:]...)
			return
		}
	}
}

// ClustersByKind returns all clusters, or only those matching kind when
// kind is non-nil.
func (b *Bus) ClustersByKind(kind *ClusterKind) []Cluster {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Cluster, 0, len(b.clusters))
	for _, id := range b.clusterOrder {
		c, ok := b.clusters[id]
		if !ok {
			continue
		}
		if kind != nil && c.Kind != *kind {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DirtyRegions returns the regions of currently queued DirtyRegion hints,
// without removing them (a peek, unlike Take).
func (b *Bus) DirtyRegions() []gridstore.Region {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []gridstore.Region
	for _, h := range b.hints {
		if h.Kind == DirtyRegion {
			out = append(out, h.Region)
		}
	}
	return out
}

// MarkProcessed drops every queued hint overlapping region. Idempotent:
// calling it twice in a row with no intervening Publish is a no-op the
// second time.
func (b *Bus) MarkProcessed(region gridstore.Region) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := make(hintHeap, 0, len(b.hints))
	for _, h := range b.hints {
		if h.Region.Intersects(region) {
			continue
		}
		kept = append(kept, h)
	}
	b.hints = kept
	heap.Init(&b.hints)
}

// SolverFeedback publishes a SolverFeedback hint for region and
// down-weights the priority of every cluster overlapping region by
// 1 − 0.5·success_rate, per spec §4.2.
func (b *Bus) SolverFeedback(region gridstore.Region, successRate float64, meta map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := map[string]any{"success_rate": successRate}
	for k, v := range meta {
		m[k] = v
	}
	heap.Push(&b.hints, Hint{
		Kind:      SolverFeedback,
		Priority:  successRate,
		Timestamp: time.Now(),
		Region:    region,
		Metadata:  m,
	})
	if len(b.hints) > b.cfg.MaxHints {
		idx := b.hints.lowestPriorityIndex()
		removeAt(&b.hints, idx)
	}

	factor := 1 - 0.5*successRate
	for id, c := range b.clusters {
		if c.Bounds.Intersects(region) {
			c.Priority *= factor
			b.clusters[id] = c
		}
	}
}

// cleanupLocked prunes hints and clusters older than the TTL, but runs at
// most once per CleanupIntervalSecs (spec §4.2: "A periodic cleanup runs
// at most every N seconds").
func (b *Bus) cleanupLocked() {
	now := time.Now()
	if now.Sub(b.lastCleanup) < time.Duration(b.cfg.CleanupIntervalSecs)*time.Second {
		return
	}
	b.lastCleanup = now

	cutoff := now.Add(-b.cfg.TTL)
	kept := make(hintHeap, 0, len(b.hints))
	for _, h := range b.hints {
		if h.Timestamp.After(cutoff) {
			kept = append(kept, h)
		}
	}
	b.hints = kept
	heap.Init(&b.hints)

	var order []string
	for _, id := range b.clusterOrder {
		c, ok := b.clusters[id]
		if !ok {
			continue
		}
		if c.CreatedAt.After(cutoff) {
			order = append(order, id)
		} else {
			delete(b.clusters, id)
		}
	}
	b.clusterOrder = order
}

// Len reports the current number of queued hints (test/observability
// convenience, not part of the spec operation list).
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hints)
}

// Snapshot returns a read-only copy of the current hints and clusters, for
// the observability dashboard.
type Snapshot struct {
	Hints    []Hint
	Clusters []Cluster
}

// Snapshot returns the bus's current state for observability consumption.
func (b *Bus) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	hints := make([]Hint, len(b.hints))
	copy(hints, b.hints)

	clusters := make([]Cluster, 0, len(b.clusters))
	for _, id := range b.clusterOrder {
		if c, ok := b.clusters[id]; ok {
			clusters = append(clusters, c)
		}
	}
	return Snapshot{Hints: hints, Clusters: clusters}
}
