package agent

import (
	"context"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"sweepcore/actionqueue"
	"sweepcore/config"
	"sweepcore/csp"
	"sweepcore/density"
	"sweepcore/executor"
	"sweepcore/frontier"
	"sweepcore/gridstore"
	"sweepcore/hintbus"
	"sweepcore/patchsource"
	"sweepcore/pathplan"
	"sweepcore/recognizer"
	"sweepcore/tracesink"
)

// Core owns one instance of every pipeline stage and drives them through
// a single Tick, the same wiring spec §2 describes: BrowserDriver
// screenshot -> PatchSource -> Recognizer -> GridStore write ->
// FrontierExtractor -> HybridSolver -> ActionQueue -> ActionExecutor ->
// GridStore flag write-back -> DensityAnalyzer -> PathPlanner ->
// BrowserDriver move.
type Core struct {
	deps Deps
	cfg  *config.Config

	grid       *gridstore.Store
	bus        *hintbus.Bus
	patches    *patchsource.Source
	recognizer *recognizer.Recognizer
	frontier   *frontier.Extractor
	solver     *csp.HybridSolver
	queue      *actionqueue.Queue
	executor   *executor.Executor
	density    *density.Analyzer
	planner    *pathplan.Planner
	scheduler  *pathplan.Scheduler

	tickID uint64
}

// New wires every stage from cfg, defaulting Trace to tracesink.Noop{}
// and tolerating a nil Obs, per spec §7's degraded-mode policy.
func New(cfg *config.Config, source recognizer.TemplateSource, deps Deps) *Core {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Trace == nil {
		deps.Trace = tracesink.Noop{}
	}

	var initial *gridstore.Region
	if cfg.Grid.InitialBounds != nil {
		initial = cfg.Grid.InitialBounds
	}
	grid := gridstore.New(initial)
	bus := hintbus.New(cfg.Hints)

	rec := recognizer.New(source)
	rec.SetThresholds(cfg.Recognizer.ColorThreshold, cfg.Recognizer.TemplateThreshold)

	return &Core{
		deps:       deps,
		cfg:        cfg,
		grid:       grid,
		bus:        bus,
		patches:    patchsource.New(32, 2),
		recognizer: rec,
		frontier:   frontier.New(bus),
		solver:     csp.NewHybridSolver(bus, csp.HybridCSPMC),
		queue:      actionqueue.New(cfg.Queue),
		executor:   executor.New(deps.Driver, grid, cfg.Executor),
		density:    density.New(cfg.Density),
		planner:    pathplan.New(pathplan.Adaptive),
		scheduler:  pathplan.NewScheduler(pathplan.DefaultSchedulerConfig()),
	}
}

// Grid exposes the store for callers (observability, cmd/sweepcore's
// debug routes) that need read access without going through Tick.
func (c *Core) Grid() *gridstore.Store { return c.grid }

// Tick runs one full pass of the pipeline. A failure at any stage is a
// soft failure per spec §7: it is recorded as a trace event and the tick
// returns early, but Core itself stays usable for the next Tick.
func (c *Core) Tick(ctx context.Context) (TickResult, error) {
	start := time.Now()
	c.tickID++
	result := TickResult{TickID: c.tickID}

	viewX, viewY, viewW, viewH, err := c.deps.Driver.CurrentViewport(ctx)
	if err != nil {
		c.recordError("driver", "current_viewport", err)
		return result, nil
	}
	viewport := gridstore.NewRegion(viewX, viewY, viewW, viewH)

	screenshot, err := c.deps.Driver.TakeScreenshot(ctx)
	if err != nil {
		c.recordError("driver", "take_screenshot", err)
		return result, nil
	}

	patches, meta := c.patches.Extract(screenshot, viewport, nil)
	if meta != nil {
		c.traceEvent(tracesink.Error, meta)
		return result, nil
	}
	result.PatchCount = len(patches)

	symbols, confidence := c.classifyPatches(viewport, patches)
	if err := c.grid.UpdateRegion(viewport, symbols, confidence, nil, nil); err != nil {
		c.recordError("gridstore", "update_region", err)
		return result, nil
	}

	snap := c.grid.SolverView()
	centerX, centerY := viewX+viewW/2, viewY+viewH/2
	c.frontier.Extract(viewport, snap, centerX, centerY, func(region gridstore.Region, mask []bool) error {
		return c.grid.UpdateRegion(region, nil, nil, mask, nil)
	})

	snap = c.grid.SolverView()
	solved := c.solver.Solve(ctx, viewport, snap)

	queuedIDs := c.queue.Enqueue(toSolverActions(solved.Actions), snap)
	for _, id := range queuedIDs {
		if id != "" {
			result.ActionsQueued++
		}
	}

	ready := c.queue.NextActions(batchSize)
	reports := c.runReady(ctx, ready)
	result.ActionsRun = len(reports)
	for i, report := range reports {
		success := report.Result == executor.Success
		if success {
			result.ActionsOK++
		}
		c.queue.Complete(ready[i].ID, success, nil)
		c.recordOperation("executor", ready[i].Action.Kind.String(), report.Elapsed.Seconds(), success)
	}

	snap = c.grid.SolverView()
	densityGrid, hotspots, stats := c.density.Analyze(viewport, snap)
	result.HotspotCount = len(hotspots)

	movement := c.planner.Plan(hotspots, centerX, centerY)
	result.Movement = movement.Reasoning

	c.evaluateScheduler(densityGrid, stats, viewport)

	if movement.DX != 0 || movement.DY != 0 {
		if _, err := c.deps.Driver.ScrollTo(ctx, movement.DX, movement.DY); err != nil {
			c.recordError("driver", "scroll_to", err)
		}
	}
	c.scheduler.MarkCaptured()

	if c.cfg.Recognizer.AdaptiveThresholds && result.ActionsRun > 0 {
		c.recognizer.ApplyFeedback(float64(result.ActionsOK) / float64(result.ActionsRun))
	}

	result.Elapsed = time.Since(start)
	c.recordTick(result, viewport, snap)
	return result, nil
}

// Run drives Tick once per interval until ctx is cancelled, using
// the same channerics ticker idiom the rest of the module uses for
// periodic work.
func (c *Core) Run(ctx context.Context, interval time.Duration) error {
	ticker := channerics.NewTicker(ctx.Done(), interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			if _, err := c.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Core) classifyPatches(viewport gridstore.Region, patches []patchsource.Patch) ([]gridstore.Symbol, []float32) {
	area := viewport.Area()
	symbols := make([]gridstore.Symbol, area)
	confidence := make([]float32, area)
	for i := range symbols {
		symbols[i] = gridstore.Unknown
	}

	w := viewport.Width()
	for _, p := range patches {
		match := c.recognizer.Classify(p.Pixels)
		idx := (p.GridY-viewport.YMin)*w + (p.GridX - viewport.XMin)
		if idx < 0 || idx >= area {
			continue
		}
		symbols[idx] = match.Symbol
		confidence[idx] = float32(match.Confidence)
	}
	return symbols, confidence
}

func toSolverActions(actions []csp.Action) []actionqueue.SolverAction {
	out := make([]actionqueue.SolverAction, len(actions))
	for i, a := range actions {
		out[i] = actionqueue.SolverAction{
			Kind:       actionqueue.Kind(a.Kind),
			Coord:      actionqueue.Coord{X: a.Coord.X, Y: a.Coord.Y},
			Confidence: a.Confidence,
			Reasoning:  a.Reasoning,
			Engine:     a.Engine,
		}
	}
	return out
}

func (c *Core) runReady(ctx context.Context, ready []actionqueue.QueuedAction) []executor.Report {
	if len(ready) == 0 {
		return nil
	}
	execActions := make([]executor.Action, len(ready))
	for i, qa := range ready {
		c.queue.MarkExecuting(qa.ID)
		execActions[i] = executor.Action{
			ID:    qa.ID,
			Kind:  executor.Kind(qa.Action.Kind),
			Coord: executor.Coord{X: qa.Action.Coord.X, Y: qa.Action.Coord.Y},
		}
	}
	return c.executor.ExecuteBatch(ctx, execActions)
}

// evaluateScheduler turns this tick's density stats into the Scheduler's
// per-region candidates and runs the four trigger checks.
func (c *Core) evaluateScheduler(grid density.Grid, stats []density.RegionStats, viewport gridstore.Region) {
	var maxDensity float64
	for _, v := range grid.Values {
		if v > maxDensity {
			maxDensity = v
		}
	}

	st := c.grid.Stats()
	var frontierRatio float64
	if st.Total > 0 {
		frontierRatio = float64(st.Frontier) / float64(st.Total)
	}

	candidates := make([]pathplan.RegionDensity, len(stats))
	for i, s := range stats {
		candidates[i] = pathplan.RegionDensity{Region: s.Bounds, Density: s.Priority}
	}

	c.scheduler.Evaluate(maxDensity, frontierRatio, candidates, viewport)
}

func (c *Core) recordError(layer, op string, err error) {
	c.traceEvent(tracesink.Error, map[string]any{"layer": layer, "op": op, "error": err.Error()})
	c.recordOperation(layer, op, 0, false)
}

func (c *Core) traceEvent(kind tracesink.EventKind, data map[string]any) {
	_ = c.deps.Trace.RecordEvent(tracesink.TraceEvent{
		Tick: c.tickID,
		Kind: kind,
		Data: data,
		At:   time.Now(),
	})
}

func (c *Core) recordOperation(layer, name string, durationSeconds float64, success bool) {
	if c.deps.Obs == nil {
		return
	}
	c.deps.Obs.RecordOperation(layer, name, durationSeconds, success, nil)
}

func (c *Core) recordTick(result TickResult, viewport gridstore.Region, snap gridstore.Snapshot) {
	data := c.grid.GetRegion(viewport)
	_ = c.deps.Trace.RecordTick(tracesink.SnapshotFromGridStore(c.tickID, data, viewport, nil, map[string]any{
		"patch_count":    result.PatchCount,
		"actions_queued": result.ActionsQueued,
		"actions_run":    result.ActionsRun,
		"actions_ok":     result.ActionsOK,
		"hotspot_count":  result.HotspotCount,
		"movement":       result.Movement,
	}))

	if c.deps.Obs == nil {
		return
	}
	c.deps.Obs.SetGauge("hotspot_count", float64(result.HotspotCount), "density", nil)
	c.deps.Obs.SetGauge("queue_depth", float64(c.queue.QueueStatus().Total), "actionqueue", nil)
	c.deps.Obs.IncrementCounter("ticks_completed", 1, "agent", nil)
}
