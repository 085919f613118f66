package pathplan

import (
	"testing"
	"time"

	"sweepcore/gridstore"
)

func TestEvaluateSchedulesTaskOnDensitySpike(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	viewport := gridstore.NewRegion(0, 0, 10, 10)

	s.Evaluate(0.1, 0.0, nil, viewport) // baseline
	s.Evaluate(0.6, 0.0, nil, viewport) // jump of 0.5 > 0.3 threshold

	task, ok := s.Next()
	if !ok {
		t.Fatal("expected a scheduled task after a density spike")
	}
	if task.Trigger != TriggerDensitySpike {
		t.Fatalf("expected TriggerDensitySpike, got %v", task.Trigger)
	}
}

func TestEvaluateSchedulesTaskForCriticalRegionOutsideViewport(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	viewport := gridstore.NewRegion(0, 0, 10, 10)
	far := gridstore.NewRegion(1000, 1000, 5, 5)

	s.Evaluate(0, 0, []RegionDensity{{Region: far, Density: 0.9}}, viewport)

	task, ok := s.Next()
	if !ok {
		t.Fatal("expected a scheduled task for the critical region")
	}
	if task.Trigger != TriggerCriticalOutsideViewport {
		t.Fatalf("expected TriggerCriticalOutsideViewport, got %v", task.Trigger)
	}
}

func TestEvaluateSkipsCriticalRegionOverlappingViewport(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	viewport := gridstore.NewRegion(0, 0, 10, 10)
	overlapping := gridstore.NewRegion(5, 5, 5, 5)

	s.Evaluate(0, 0, []RegionDensity{{Region: overlapping, Density: 0.9}}, viewport)

	if _, ok := s.Next(); ok {
		t.Fatal("expected no task scheduled for a critical region already inside the viewport")
	}
}

func TestNextOrdersByPriority(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	s.scheduleLocked(gridstore.NewRegion(0, 0, 1, 1), 0.2, TriggerTimeout, nil)
	s.scheduleLocked(gridstore.NewRegion(1, 1, 1, 1), 0.9, TriggerTimeout, nil)

	task, ok := s.Next()
	if !ok || task.Priority != 0.9 {
		t.Fatalf("expected the higher-priority task first, got %+v ok=%v", task, ok)
	}
}

func TestNextRespectsDependencies(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	parent := s.scheduleLocked(gridstore.NewRegion(0, 0, 1, 1), 0.5, TriggerTimeout, nil)
	child := s.scheduleLocked(gridstore.NewRegion(1, 1, 1, 1), 0.9, TriggerTimeout, []string{parent.ID})
	child.Status = TaskReady

	task, ok := s.Next()
	if !ok || task.ID != parent.ID {
		t.Fatalf("expected the dependency-free parent to come first, got %+v ok=%v", task, ok)
	}

	s.Complete(parent.ID, true)
	task2, ok := s.Next()
	if !ok || task2.ID != child.ID {
		t.Fatalf("expected the child to become ready after its parent completes, got %+v ok=%v", task2, ok)
	}
}

func TestCompleteRetriesFailedTaskWithReducedPriority(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	s.Cfg.MaxRetries = 2
	scheduled := s.scheduleLocked(gridstore.NewRegion(0, 0, 1, 1), 1.0, TriggerTimeout, nil)

	// Mirror real usage: a task is popped via Next (entering Executing)
	// before its outcome is reported via Complete.
	task, ok := s.Next()
	if !ok || task.ID != scheduled.ID {
		t.Fatalf("expected to pop the scheduled task, got %+v ok=%v", task, ok)
	}

	s.Complete(scheduled.ID, false)
	if scheduled.Status != TaskReady {
		t.Fatalf("expected task to be retried, got status %v", scheduled.Status)
	}
	if scheduled.Priority >= 1.0 {
		t.Fatalf("expected reduced priority after a failed attempt, got %v", scheduled.Priority)
	}

	if _, ok := s.Next(); !ok {
		t.Fatal("expected the retried task to be poppable again")
	}
	s.Complete(scheduled.ID, false)
	if _, ok := s.Next(); !ok {
		t.Fatal("expected the second retry to be poppable again")
	}
	s.Complete(scheduled.ID, false)
	if scheduled.Status != TaskFailed {
		t.Fatalf("expected task to be Failed after exceeding MaxRetries, got %v", scheduled.Status)
	}
}

func TestExpireLockedMarksStaleTasksExpired(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	s.Cfg.TaskTimeout = time.Millisecond
	task := s.scheduleLocked(gridstore.NewRegion(0, 0, 1, 1), 1.0, TriggerTimeout, nil)
	time.Sleep(5 * time.Millisecond)

	if _, ok := s.Next(); ok {
		t.Fatal("expected the stale task to be expired rather than returned")
	}
	if task.Status != TaskExpired {
		t.Fatalf("expected TaskExpired, got %v", task.Status)
	}
}
