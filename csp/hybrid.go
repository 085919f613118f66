package csp

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"sweepcore/gridstore"
	"sweepcore/hintbus"
)

// Strategy selects which component types a HybridSolver will attempt to
// solve beyond plain CSP solving, per spec §4.6.
type Strategy int

const (
	CSPOnly Strategy = iota
	HybridCSPMC
	HybridFull
	FastMode
)

// HybridSolver drives segmentation, per-component solving, and publishes
// solver_feedback hints.
type HybridSolver struct {
	Bus          *hintbus.Bus
	SegmentCfg   SegmentConfig
	SolveCfg     SolveConfig
	Strategy     Strategy
	MonteCarloSamples int
	Rand         *rand.Rand
}

// NewHybridSolver returns a solver with documented defaults.
func NewHybridSolver(bus *hintbus.Bus, strategy Strategy) *HybridSolver {
	return &HybridSolver{
		Bus:               bus,
		SegmentCfg:        DefaultSegmentConfig(),
		SolveCfg:          DefaultSolveConfig(),
		Strategy:          strategy,
		MonteCarloSamples: 500,
		Rand:              rand.New(rand.NewSource(1)),
	}
}

const fastModeMaxComponents = 3
const fastModeSubTimeout = 2 * time.Second

// SolveResult is the aggregate outcome of a full solving pass over a
// region.
type SolveResult struct {
	Actions       []Action
	Components    []Component
	Infeasible    []Component
	TimedOut      bool
}

// Solve segments region and dispatches each component to the solving
// strategy appropriate to its type and the configured Strategy.
func (h *HybridSolver) Solve(ctx context.Context, region gridstore.Region, snap gridstore.Snapshot) SolveResult {
	components := Segment(region, snap, h.SegmentCfg)

	if h.Strategy == FastMode {
		components = topPriority(components, fastModeMaxComponents)
	}

	var result SolveResult
	for _, c := range components {
		if c.Type == Trivial {
			continue
		}

		compCtx := ctx
		var cancel context.CancelFunc
		if h.Strategy == FastMode {
			compCtx, cancel = context.WithTimeout(ctx, fastModeSubTimeout)
		}

		actions, infeasible, timedOut := h.solveComponent(compCtx, c)
		if cancel != nil {
			cancel()
		}

		result.Components = append(result.Components, c)
		result.Actions = append(result.Actions, actions...)
		if infeasible {
			result.Infeasible = append(result.Infeasible, c)
		}
		if timedOut {
			result.TimedOut = true
		}

		if len(actions) > 0 && h.Bus != nil {
			h.Bus.SolverFeedback(c.Bounds, 1.0, map[string]any{"component_id": c.ID})
		}
	}
	return result
}

func (h *HybridSolver) solveComponent(ctx context.Context, c Component) (actions []Action, infeasible bool, timedOut bool) {
	switch c.Type {
	case CSPSolvable:
		solutions, to := Solve(ctx, c, h.SolveCfg)
		timedOut = to
		if len(solutions) == 0 {
			return nil, true, timedOut
		}
		safe, mines, probs := DeriveCertainties(c.Cells, solutions)
		return ActionsForComponent(c, safe, mines, probs), false, timedOut

	case MonteCarlo:
		if h.Strategy == CSPOnly {
			return nil, false, false
		}
		probs := SampleMonteCarlo(h.Rand, c, h.MonteCarloSamples, h.SolveCfg.MaxMineRatio)
		safe, mines := splitCertain(probs)
		return ActionsForComponent(c, safe, mines, probs), false, false

	case NeuralAssist:
		if h.Strategy != HybridFull {
			return nil, false, false
		}
		probs := NeuralAssistProbabilities(c)
		safe, mines := splitCertain(probs)
		return ActionsForComponent(c, safe, mines, probs), false, false

	default:
		return nil, false, false
	}
}

func splitCertain(probabilities map[Coord]float64) (safe, mines []Coord) {
	for c, p := range probabilities {
		switch {
		case p <= epsilon:
			safe = append(safe, c)
		case p >= 1-epsilon:
			mines = append(mines, c)
		}
	}
	return safe, mines
}

func topPriority(components []Component, n int) []Component {
	sorted := append([]Component(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
