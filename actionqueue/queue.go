package actionqueue

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"sweepcore/gridstore"
)

// Config tunes Queue capacity and clustering, mapping onto spec §6.4's
// "Actions" option group.
type Config struct {
	MaxQueueSize  int
	ClusterRadius float64
	MaxRetries    int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{MaxQueueSize: 500, ClusterRadius: 30, MaxRetries: 3}
}

// GridView is the minimal read access ActionQueue needs from GridStore to
// filter actions against current cell state, satisfied by
// gridstore.Snapshot.
type GridView interface {
	At(x, y int) (symbol gridstore.Symbol, confidence float32, frontier bool, ok bool)
}

// Queue is the priority/dedup/cluster/retry action queue.
type Queue struct {
	mu sync.Mutex

	cfg Config

	actions map[string]*QueuedAction
	order   []string // insertion order, for deterministic iteration

	nextID uint64
}

// New returns an empty Queue.
func New(cfg Config) *Queue {
	return &Queue{cfg: cfg, actions: make(map[string]*QueuedAction)}
}

// Enqueue filters actions against view, dedups by (coord, kind), computes
// priority, and inserts survivors. Returns the ids assigned (empty string
// for actions rejected by the view filter).
func (q *Queue) Enqueue(actions []SolverAction, view GridView) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := make([]string, len(actions))
	for i, a := range actions {
		if !q.passesFilter(a, view) {
			continue
		}
		priority := a.Confidence * kindWeight(a.Kind)
		id := q.insertOrReplace(a, priority)
		ids[i] = id
	}

	q.pruneIfOverflowLocked()
	return ids
}

func (q *Queue) passesFilter(a SolverAction, view GridView) bool {
	if view == nil {
		return true
	}
	sym, _, _, ok := view.At(a.Coord.X, a.Coord.Y)
	if !ok {
		return false
	}
	switch a.Kind {
	case Reveal, Guess, Flag:
		return sym == gridstore.Unknown || sym == gridstore.Unrevealed
	default:
		return true
	}
}

// insertOrReplace implements the dedup rule: if an action at the same
// (coord, kind) already exists, keep the higher-priority one.
func (q *Queue) insertOrReplace(a SolverAction, priority float64) string {
	for id, existing := range q.actions {
		if existing.Action.Coord == a.Coord && existing.Action.Kind == a.Kind {
			if priority > existing.Priority {
				existing.Action = a
				existing.Priority = priority
			}
			return id
		}
	}

	q.nextID++
	id := fmt.Sprintf("action-%d", q.nextID)
	q.actions[id] = &QueuedAction{
		ID:        id,
		Action:    a,
		Priority:  priority,
		Status:    Queued,
		DependsOn: a.DependsOn,
	}
	q.order = append(q.order, id)
	return id
}

// pruneIfOverflowLocked drops the lowest-20%-by-priority queued actions
// when the queue exceeds MaxQueueSize, per spec §4.7.
func (q *Queue) pruneIfOverflowLocked() {
	if len(q.actions) <= q.cfg.MaxQueueSize {
		return
	}
	type scored struct {
		id       string
		priority float64
	}
	list := make([]scored, 0, len(q.actions))
	for id, a := range q.actions {
		if a.Status == Queued {
			list = append(list, scored{id, a.Priority})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].priority < list[j].priority })

	cut := len(list) * 20 / 100
	for i := 0; i < cut; i++ {
		delete(q.actions, list[i].id)
	}
	q.compactOrderLocked()
}

func (q *Queue) compactOrderLocked() {
	kept := make([]string, 0, len(q.actions))
	for _, id := range q.order {
		if _, ok := q.actions[id]; ok {
			kept = append(kept, id)
		}
	}
	q.order = kept
}

// NextActions pops at most maxCount Queued actions whose dependencies are
// all Completed, grouped by spatial cluster (Flags before Reveals, ordered
// by distance-from-cluster-center), marking them Scheduled.
func (q *Queue) NextActions(maxCount int) []QueuedAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UnixNano()
	var ready []*QueuedAction
	for _, id := range q.order {
		a := q.actions[id]
		if a.Status != Queued {
			continue
		}
		if a.ReadyAt > now {
			continue
		}
		if !q.dependenciesSatisfiedLocked(a) {
			continue
		}
		ready = append(ready, a)
	}

	ordered := orderByCluster(ready, q.cfg.ClusterRadius)

	if maxCount > len(ordered) {
		maxCount = len(ordered)
	}
	out := make([]QueuedAction, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		ordered[i].Status = Scheduled
		out = append(out, *ordered[i])
	}
	return out
}

func (q *Queue) dependenciesSatisfiedLocked(a *QueuedAction) bool {
	for _, depID := range a.DependsOn {
		dep, ok := q.actions[depID]
		if !ok {
			continue // dependency already pruned/gone; treat as satisfied
		}
		if dep.Status != Completed {
			return false
		}
	}
	return true
}

// MarkExecuting transitions a Scheduled action to Executing.
func (q *Queue) MarkExecuting(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if a, ok := q.actions[id]; ok {
		a.Status = Executing
	}
}

// Complete resolves an action. On failure with remaining retries, it is
// re-queued with reduced priority and a delay; otherwise it moves to
// Failed.
func (q *Queue) Complete(id string, success bool, meta map[string]any) {
	q.mu.Lock()
	defer q.mu.Unlock()

	a, ok := q.actions[id]
	if !ok {
		return
	}
	if success {
		a.Status = Completed
		return
	}

	if a.RetryCount < q.cfg.MaxRetries {
		a.RetryCount++
		a.Priority *= 0.8
		a.Status = Queued
		a.ReadyAt = time.Now().Add(retryDelay(a.RetryCount)).UnixNano()
		return
	}
	a.Status = Failed
}

// retryDelay implements the same exponential backoff shape ActionExecutor
// uses: 0.1 * 2^k seconds.
func retryDelay(attempt int) time.Duration {
	seconds := 0.1 * math.Pow(2, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

// QueueStatus returns aggregate counts by status.
func (q *Queue) QueueStatus() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	var s QueueStatus
	for _, a := range q.actions {
		s.Total++
		switch a.Status {
		case Queued:
			s.Queued++
		case Scheduled:
			s.Scheduled++
		case Executing:
			s.Executing++
		case Completed:
			s.Completed++
		case Failed:
			s.Failed++
		}
	}
	return s
}

// Get returns a copy of the action for id (test/observability
// convenience).
func (q *Queue) Get(id string) (QueuedAction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.actions[id]
	if !ok {
		return QueuedAction{}, false
	}
	return *a, true
}
