// Package agent wires GridStore, the recognition/solving/execution
// pipeline, and density-driven path planning into a single tick-driven
// core, per spec §2's control-flow paragraph.
package agent

import (
	"time"

	"sweepcore/driver"
	"sweepcore/observability"
	"sweepcore/tracesink"
)

// Deps bundles the collaborators Core needs that aren't derivable from
// Config alone: the real/null BrowserDriver, an optional persistence
// sink, and an optional metrics/alerting surface. Both Trace and Obs may
// be nil; Core treats a nil TraceSink/Observability as the degraded-mode
// "silently skip" policy of spec §7 rather than special-casing it inline
// (Trace defaults to tracesink.Noop{}, Obs calls are simply skipped).
type Deps struct {
	Driver driver.BrowserDriver
	Trace  tracesink.TraceSink
	Obs    observability.Observability
}

// TickResult summarizes what one Tick accomplished, for callers (tests,
// cmd/sweepcore's status endpoint) that want more than pass/fail.
type TickResult struct {
	TickID        uint64
	PatchCount    int
	ActionsQueued int
	ActionsRun    int
	ActionsOK     int
	HotspotCount  int
	Movement      string
	Elapsed       time.Duration
}

// batchSize bounds how many ready actions a single tick drains from the
// queue, keeping one tick's executor fan-out bounded regardless of how
// much the solver produced.
const batchSize = 16
