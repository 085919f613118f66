package actionqueue

import (
	"testing"

	"sweepcore/gridstore"
)

type fakeView struct {
	symbols map[Coord]gridstore.Symbol
}

func (v fakeView) At(x, y int) (gridstore.Symbol, float32, bool, bool) {
	sym, ok := v.symbols[Coord{x, y}]
	if !ok {
		return gridstore.Unknown, 0, false, true
	}
	return sym, 0, false, true
}

func TestEnqueueFiltersAlreadyRevealedCells(t *testing.T) {
	view := fakeView{symbols: map[Coord]gridstore.Symbol{
		{0, 0}: gridstore.Number(1), // already revealed
		{1, 0}: gridstore.Unknown,
	}}
	q := New(DefaultConfig())
	ids := q.Enqueue([]SolverAction{
		{Kind: Reveal, Coord: Coord{0, 0}, Confidence: 1.0},
		{Kind: Reveal, Coord: Coord{1, 0}, Confidence: 1.0},
	}, view)

	if ids[0] != "" {
		t.Fatalf("expected the already-revealed cell's action to be rejected")
	}
	if ids[1] == "" {
		t.Fatalf("expected the unknown cell's action to be accepted")
	}
}

func TestEnqueueDedupsKeepingHigherPriority(t *testing.T) {
	q := New(DefaultConfig())
	ids := q.Enqueue([]SolverAction{
		{Kind: Reveal, Coord: Coord{2, 2}, Confidence: 0.5},
		{Kind: Reveal, Coord: Coord{2, 2}, Confidence: 0.9},
	}, nil)

	if ids[0] != ids[1] {
		t.Fatalf("expected both enqueues at the same (coord,kind) to resolve to the same id")
	}
	a, ok := q.Get(ids[0])
	if !ok {
		t.Fatalf("expected the action to be present")
	}
	if a.Action.Confidence != 0.9 {
		t.Fatalf("expected the higher-confidence action to survive dedup, got %v", a.Action.Confidence)
	}
}

func TestNextActionsOrdersFlagsBeforeReveals(t *testing.T) {
	q := New(DefaultConfig())
	q.Enqueue([]SolverAction{
		{Kind: Reveal, Coord: Coord{0, 0}, Confidence: 1.0},
		{Kind: Flag, Coord: Coord{1, 0}, Confidence: 1.0},
	}, nil)

	out := q.NextActions(10)
	if len(out) != 2 {
		t.Fatalf("expected 2 ready actions, got %d", len(out))
	}
	if out[0].Action.Kind != Flag {
		t.Fatalf("expected Flag to be ordered before Reveal within a cluster, got %v first", out[0].Action.Kind)
	}
}

func TestNextActionsRespectsDependencies(t *testing.T) {
	q := New(DefaultConfig())
	ids := q.Enqueue([]SolverAction{
		{Kind: Flag, Coord: Coord{0, 0}, Confidence: 1.0},
	}, nil)
	depID := ids[0]

	q.Enqueue([]SolverAction{
		{Kind: Reveal, Coord: Coord{5, 5}, Confidence: 1.0, DependsOn: []string{depID}},
	}, nil)

	out := q.NextActions(10)
	if len(out) != 1 || out[0].Action.Kind != Flag {
		t.Fatalf("expected only the non-dependent Flag action to be ready, got %+v", out)
	}

	q.MarkExecuting(depID)
	q.Complete(depID, true, nil)

	out2 := q.NextActions(10)
	if len(out2) != 1 || out2[0].Action.Kind != Reveal {
		t.Fatalf("expected the dependent Reveal action to become ready after its dependency completes, got %+v", out2)
	}
}

func TestCompleteRetriesOnFailureThenFails(t *testing.T) {
	q := New(Config{MaxQueueSize: 500, ClusterRadius: 30, MaxRetries: 1})
	ids := q.Enqueue([]SolverAction{
		{Kind: Reveal, Coord: Coord{0, 0}, Confidence: 1.0},
	}, nil)
	id := ids[0]

	q.MarkExecuting(id)
	q.Complete(id, false, nil)

	a, _ := q.Get(id)
	if a.Status != Queued || a.RetryCount != 1 {
		t.Fatalf("expected action re-queued with retry_count=1, got %+v", a)
	}

	q.MarkExecuting(id)
	q.Complete(id, false, nil)

	a2, _ := q.Get(id)
	if a2.Status != Failed {
		t.Fatalf("expected action to move to Failed after exhausting retries, got %v", a2.Status)
	}
}

func TestPruneDropsLowestTwentyPercentWhenOverflowing(t *testing.T) {
	q := New(Config{MaxQueueSize: 10, ClusterRadius: 30, MaxRetries: 3})
	var actions []SolverAction
	for i := 0; i < 12; i++ {
		actions = append(actions, SolverAction{Kind: Guess, Coord: Coord{i, 0}, Confidence: float64(i) / 12})
	}
	q.Enqueue(actions, nil)

	status := q.QueueStatus()
	if status.Total > 10 {
		t.Fatalf("expected pruning to cap the queue near max_queue_size, got %d", status.Total)
	}
}

func TestQueueStatusCountsByState(t *testing.T) {
	q := New(DefaultConfig())
	ids := q.Enqueue([]SolverAction{
		{Kind: Reveal, Coord: Coord{0, 0}, Confidence: 1.0},
		{Kind: Flag, Coord: Coord{9, 9}, Confidence: 1.0},
	}, nil)
	q.MarkExecuting(ids[0])
	q.Complete(ids[0], true, nil)

	status := q.QueueStatus()
	if status.Completed != 1 || status.Queued != 1 {
		t.Fatalf("expected 1 completed and 1 queued, got %+v", status)
	}
}
