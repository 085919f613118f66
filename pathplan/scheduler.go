package pathplan

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"sweepcore/gridstore"
)

// SchedulerConfig tunes ViewportScheduler thresholds, spec §6.4's
// "Pathfinding" option group.
type SchedulerConfig struct {
	DensitySpikeThreshold    float64
	FrontierExpansionThresh  float64
	CriticalDensityThreshold float64
	CaptureTimeout           time.Duration
	TaskTimeout              time.Duration
	MaxRetries               int
	PollInterval             time.Duration
}

// DefaultSchedulerConfig returns the documented defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DensitySpikeThreshold:    0.3,
		FrontierExpansionThresh:  0.2,
		CriticalDensityThreshold: 0.7,
		CaptureTimeout:           15 * time.Second,
		TaskTimeout:              30 * time.Second,
		MaxRetries:               3,
		PollInterval:             time.Second,
	}
}

type taskHeap []*ViewportTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].CreatedAt.Before(h[j].CreatedAt)
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(*ViewportTask)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler owns a priority heap of ViewportTasks and detects the need
// for additional captures per spec §4.10's four trigger conditions.
type Scheduler struct {
	Cfg SchedulerConfig

	mu                sync.Mutex
	tasks             taskHeap
	byID              map[string]*ViewportTask
	nextID            uint64
	lastCapture       time.Time
	lastMaxDensity    float64
	lastFrontierRatio float64
}

// NewScheduler returns a Scheduler with the given config.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{Cfg: cfg, byID: make(map[string]*ViewportTask), lastCapture: time.Now()}
}

// RegionDensity pairs a candidate region with its own overall density, as
// produced by density.Analyzer's region segmentation.
type RegionDensity struct {
	Region  gridstore.Region
	Density float64
}

// Evaluate checks the four trigger conditions against the latest tick's
// density statistics and viewport, scheduling any new ViewportTasks.
func (s *Scheduler) Evaluate(maxDensity, frontierRatio float64, candidates []RegionDensity, viewport gridstore.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxDensity-s.lastMaxDensity > s.Cfg.DensitySpikeThreshold {
		s.scheduleLocked(viewport, maxDensity, TriggerDensitySpike, nil)
	}
	if frontierRatio-s.lastFrontierRatio > s.Cfg.FrontierExpansionThresh {
		s.scheduleLocked(viewport, frontierRatio, TriggerFrontierExpansion, nil)
	}
	for _, c := range candidates {
		if c.Density > s.Cfg.CriticalDensityThreshold && !regionsOverlap(c.Region, viewport) {
			s.scheduleLocked(c.Region, 1.0, TriggerCriticalOutsideViewport, nil)
		}
	}
	if time.Since(s.lastCapture) > s.Cfg.CaptureTimeout {
		s.scheduleLocked(spiralRegion(viewport, s.tasks.Len()), 0.5, TriggerTimeout, nil)
	}

	s.lastMaxDensity = maxDensity
	s.lastFrontierRatio = frontierRatio
}

// MarkCaptured resets the timeout trigger's clock.
func (s *Scheduler) MarkCaptured() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCapture = time.Now()
}

func (s *Scheduler) scheduleLocked(region gridstore.Region, priority float64, trigger TaskTrigger, deps []string) *ViewportTask {
	s.nextID++
	t := &ViewportTask{
		ID:           fmt.Sprintf("vt-%d", s.nextID),
		Region:       region,
		Priority:     priority,
		Status:       TaskPending,
		CreatedAt:    time.Now(),
		Trigger:      trigger,
		Dependencies: deps,
	}
	if len(deps) == 0 {
		t.Status = TaskReady
	}
	heap.Push(&s.tasks, t)
	s.byID[t.ID] = t
	return t
}

// Next pops the highest-priority ready task, or returns false if none is
// ready.
func (s *Scheduler) Next() (ViewportTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	var deferred []*ViewportTask
	var result *ViewportTask
	for s.tasks.Len() > 0 {
		candidate := heap.Pop(&s.tasks).(*ViewportTask)
		if candidate.Status != TaskReady || !s.dependenciesSatisfiedLocked(candidate) {
			deferred = append(deferred, candidate)
			continue
		}
		result = candidate
		break
	}
	for _, d := range deferred {
		heap.Push(&s.tasks, d)
	}
	if result == nil {
		return ViewportTask{}, false
	}
	result.Status = TaskExecuting
	return *result, true
}

func (s *Scheduler) dependenciesSatisfiedLocked(t *ViewportTask) bool {
	for _, depID := range t.Dependencies {
		dep, ok := s.byID[depID]
		if !ok || dep.Status != TaskCompleted {
			return false
		}
	}
	return true
}

func (s *Scheduler) expireLocked() {
	now := time.Now()
	for _, t := range s.tasks {
		if t.Status == TaskExecuting || t.Status == TaskReady {
			if now.Sub(t.CreatedAt) > s.Cfg.TaskTimeout {
				t.Status = TaskExpired
			}
		}
	}
}

// Complete marks a task's outcome; a failure reschedules with reduced
// priority up to Cfg.MaxRetries.
func (s *Scheduler) Complete(id string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[id]
	if !ok {
		return
	}
	if success {
		t.Status = TaskCompleted
		return
	}

	if t.RetryCount >= s.Cfg.MaxRetries {
		t.Status = TaskFailed
		return
	}
	t.RetryCount++
	t.Priority *= 0.8
	t.Status = TaskReady
	t.CreatedAt = time.Now()
	heap.Push(&s.tasks, t)
}

// Run drives Evaluate/expiry checks on Cfg.PollInterval until ctx is
// cancelled, using the same channerics ticker idiom the teacher's
// websocket client uses for ping/pong liveness checks.
func (s *Scheduler) Run(ctx context.Context, tick func() (maxDensity, frontierRatio float64, candidates []RegionDensity, viewport gridstore.Region)) error {
	ticker := channerics.NewTicker(ctx.Done(), s.Cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			maxDensity, frontierRatio, candidates, viewport := tick()
			s.Evaluate(maxDensity, frontierRatio, candidates, viewport)
		}
	}
}

func regionsOverlap(a, b gridstore.Region) bool {
	return a.XMin <= b.XMax && a.XMax >= b.XMin && a.YMin <= b.YMax && a.YMax >= b.YMin
}

// spiralRegion picks the next exploration target along an outward spiral
// from the viewport, indexed by how many tasks have been scheduled so
// far (a simple deterministic substitute for tracking spiral state).
func spiralRegion(viewport gridstore.Region, step int) gridstore.Region {
	ring := step/8 + 1
	offsets := [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	off := offsets[step%8]
	dx := off[0] * ring * viewport.Width()
	dy := off[1] * ring * viewport.Height()
	return gridstore.Region{
		XMin: viewport.XMin + dx, YMin: viewport.YMin + dy,
		XMax: viewport.XMax + dx, YMax: viewport.YMax + dy,
	}
}
