package csp

import (
	"context"
	"testing"

	"sweepcore/gridstore"
	"sweepcore/hintbus"
)

func TestHybridSolverSolvesCSPComponentAndPublishesFeedback(t *testing.T) {
	region := gridstore.NewRegion(0, 0, 3, 1)
	symbols := []gridstore.Symbol{gridstore.Number(1), gridstore.Unknown, gridstore.Unknown}
	frontier := []bool{false, true, true}
	snap := buildSnapshot(region, symbols, frontier)

	bus := hintbus.New(hintbus.DefaultConfig())
	solver := NewHybridSolver(bus, HybridFull)

	result := solver.Solve(context.Background(), region, snap)
	if len(result.Actions) == 0 {
		t.Fatalf("expected at least one action from a fully constrained component")
	}

	hints := bus.Take(10, 0)
	found := false
	for _, h := range hints {
		if h.Kind == hintbus.SolverFeedback {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a SolverFeedback hint to be published after solving")
	}
}

func TestHybridSolverFastModeLimitsComponents(t *testing.T) {
	// Build 5 disjoint single-cell components far enough apart to avoid
	// merging under 8-connectivity.
	region := gridstore.NewRegion(0, 0, 20, 1)
	symbols := make([]gridstore.Symbol, 20)
	frontier := make([]bool, 20)
	for i := range symbols {
		symbols[i] = gridstore.Unknown
	}
	for i := 0; i < 5; i++ {
		idx := i * 4
		symbols[idx] = gridstore.Number(1)
		frontier[idx+1] = true
	}
	snap := buildSnapshot(region, symbols, frontier)

	solver := NewHybridSolver(nil, FastMode)
	result := solver.Solve(context.Background(), region, snap)

	if len(result.Components) > fastModeMaxComponents {
		t.Fatalf("expected at most %d components processed in FastMode, got %d", fastModeMaxComponents, len(result.Components))
	}
}

func TestHybridSolverCSPOnlySkipsMonteCarloComponents(t *testing.T) {
	c := Component{
		ID:          0,
		Cells:       []Coord{{0, 0}},
		NumberCells: map[Coord]int{},
		Bounds:      gridstore.NewRegion(0, 0, 1, 1),
		Type:        MonteCarlo,
	}
	solver := NewHybridSolver(nil, CSPOnly)
	actions, infeasible, timedOut := solver.solveComponent(context.Background(), c)

	if actions != nil || infeasible || timedOut {
		t.Fatalf("expected CSPOnly strategy to skip MonteCarlo components entirely")
	}
}
