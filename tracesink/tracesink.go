// Package tracesink persists structured trace events emitted by the
// core, per spec §6.2. Persistence policy is entirely the sink's
// concern; the core only guarantees bounded in-memory queues upstream
// of Write/Record calls.
package tracesink

import (
	"time"

	"sweepcore/gridstore"
)

// EventKind classifies a TraceEvent.
type EventKind int

const (
	Tick EventKind = iota
	Action
	Solver
	ViewportChange
	Error
	SystemEvent
)

func (k EventKind) String() string {
	switch k {
	case Tick:
		return "tick"
	case Action:
		return "action"
	case Solver:
		return "solver"
	case ViewportChange:
		return "viewport_change"
	case Error:
		return "error"
	case SystemEvent:
		return "system_event"
	default:
		return "unknown"
	}
}

// TickSnapshot is a self-describing record of one tick's GridStore state
// plus whatever pending work existed at the time, spec §6.2/§6.5.
type TickSnapshot struct {
	TickID         uint64
	Timestamp      time.Time
	OriginX        int
	OriginY        int
	Width          int
	Height         int
	Symbols        []gridstore.Symbol
	Confidence     []float32
	Age            []uint64
	Frontier       []bool
	SolverState    map[string]any
	ViewportRegion gridstore.Region
	PendingActions []string
	Metadata       map[string]any
}

// SnapshotFromGridStore builds a TickSnapshot from a Store's region data
// and the ambient tick context.
func SnapshotFromGridStore(tickID uint64, data gridstore.RegionData, viewport gridstore.Region, pendingActions []string, meta map[string]any) TickSnapshot {
	return TickSnapshot{
		TickID:         tickID,
		Timestamp:      time.Now(),
		OriginX:        data.Region.XMin,
		OriginY:        data.Region.YMin,
		Width:          data.Region.Width(),
		Height:         data.Region.Height(),
		Symbols:        data.Symbols,
		Confidence:     data.Confidence,
		Age:            data.Age,
		Frontier:       data.Frontier,
		ViewportRegion: viewport,
		PendingActions: pendingActions,
		Metadata:       meta,
	}
}

// TraceEvent is a single structured event, line-delimited JSON on disk.
type TraceEvent struct {
	Tick     uint64         `json:"tick"`
	Kind     EventKind      `json:"kind"`
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata"`
	At       time.Time      `json:"at"`
}

// SessionMetadata is written once per session, spec §6.5.
type SessionMetadata struct {
	SessionID  string    `yaml:"session_id"`
	StartTime  time.Time `yaml:"start_time"`
	TickCount  uint64    `yaml:"tick_count"`
	ConfigHash string    `yaml:"config_hash"`
}

// TraceSink is the optional persistence collaborator, spec §6.2. A nil
// TraceSink is never constructed by callers; instead the degraded-mode
// policy (§7) is to pass a no-op sink so the core never branches on nil.
type TraceSink interface {
	RecordTick(snapshot TickSnapshot) error
	RecordEvent(event TraceEvent) error
	WriteSessionMetadata(meta SessionMetadata) error
	Close() error
}

// Noop discards everything, satisfying the degraded-mode policy of
// "no TraceSink ⇒ silently skip" without the core special-casing nil.
type Noop struct{}

func (Noop) RecordTick(TickSnapshot) error              { return nil }
func (Noop) RecordEvent(TraceEvent) error               { return nil }
func (Noop) WriteSessionMetadata(SessionMetadata) error { return nil }
func (Noop) Close() error                               { return nil }

var _ TraceSink = Noop{}
