package csp

import (
	"context"
	"sort"
)

// SolveConfig bounds enumeration per spec §4.6.
type SolveConfig struct {
	MaxSolutions int
	MaxMineRatio float64
}

// DefaultSolveConfig returns the documented defaults (8 solutions, 0.3
// distribution ratio).
func DefaultSolveConfig() SolveConfig {
	return SolveConfig{MaxSolutions: 8, MaxMineRatio: 0.3}
}

// buildConstraints constructs one MineCount constraint per number cell
// and a single Distribution constraint over all of the component's
// variables.
func buildConstraints(c Component, maxRatio float64) []Constraint {
	constraints := make([]Constraint, 0, len(c.NumberCells)+1)
	for numberCoord, expected := range c.NumberCells {
		vars := []Coord{numberCoord}
		for _, cell := range c.Cells {
			if isNeighbor(numberCoord, cell) {
				vars = append(vars, cell)
			}
		}
		constraints = append(constraints, Constraint{
			Kind:      MineCount,
			Variables: vars,
			Expected:  expected,
		})
	}
	constraints = append(constraints, Constraint{
		Kind:      Distribution,
		Variables: append([]Coord(nil), c.Cells...),
		MaxRatio:  maxRatio,
	})
	return constraints
}

func isNeighbor(a, b Coord) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= 1 && dy <= 1 && (dx != 0 || dy != 0)
}

// searchState is the mutable backtracking frame shared across recursive
// calls.
type searchState struct {
	constraints []Constraint
	assignment  map[Coord]Value
	order       []Coord
	solutions   []Solution
	maxSolutions int
	ctx         context.Context
	timedOut    bool
}

// Solve enumerates up to cfg.MaxSolutions satisfying assignments of
// component's variables via backtracking with forward checking, MRV+degree
// variable ordering. Returns the solutions found and whether the search
// was cut short by ctx expiring.
func Solve(ctx context.Context, c Component, cfg SolveConfig) ([]Solution, bool) {
	if len(c.Cells) == 0 {
		return nil, false
	}
	constraints := buildConstraints(c, cfg.MaxMineRatio)

	st := &searchState{
		constraints:  constraints,
		assignment:   make(map[Coord]Value, len(c.Cells)),
		maxSolutions: cfg.MaxSolutions,
		ctx:          ctx,
	}

	unassigned := append([]Coord(nil), c.Cells...)
	st.backtrack(unassigned)

	return st.solutions, st.timedOut
}

func (st *searchState) backtrack(unassigned []Coord) bool {
	if st.ctx != nil {
		select {
		case <-st.ctx.Done():
			st.timedOut = true
			return true
		default:
		}
	}
	if len(st.solutions) >= st.maxSolutions {
		return true
	}
	if len(unassigned) == 0 {
		st.solutions = append(st.solutions, st.snapshotSolution())
		return len(st.solutions) >= st.maxSolutions
	}

	next, rest := selectVariable(unassigned, st.constraints, st.assignment)
	order := valueOrder(next, st.constraints, st.assignment)

	for _, v := range order {
		st.assignment[next] = v
		if st.consistent(next) {
			forced, ok := st.forwardCheck(rest)
			if ok {
				for coord, val := range forced {
					st.assignment[coord] = val
				}
				remaining := subtract(rest, forced)
				if st.backtrack(remaining) {
					st.undoForced(forced)
					delete(st.assignment, next)
					return true
				}
				st.undoForced(forced)
			}
		}
		delete(st.assignment, next)
	}
	return false
}

func (st *searchState) undoForced(forced map[Coord]Value) {
	for coord := range forced {
		delete(st.assignment, coord)
	}
}

func subtract(all []Coord, remove map[Coord]Value) []Coord {
	out := make([]Coord, 0, len(all))
	for _, c := range all {
		if _, ok := remove[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func (st *searchState) snapshotSolution() Solution {
	assignments := make(map[Coord]Value, len(st.assignment))
	for k, v := range st.assignment {
		assignments[k] = v
	}
	satisfied := 0
	for _, con := range st.constraints {
		if con.Kind == Distribution && !st.distributionConsistent(con) {
			continue
		}
		satisfied++
	}
	return Solution{
		Assignments:    assignments,
		Confidence:     1.0,
		SatisfiedCount: satisfied,
		TotalCount:     len(st.constraints),
	}
}

// selectVariable implements MRV (smallest domain first) with a degree
// tie-break (most constraints involved). The effective domain size comes
// from variableMetrics: 2, or 1 when a MineCount constraint on the
// variable is saturated; the degree counts every constraint referencing
// it, Distribution included.
func selectVariable(unassigned []Coord, constraints []Constraint, assignment map[Coord]Value) (Coord, []Coord) {
	best := unassigned[0]
	bestScore := -1
	bestDegree := -1

	for _, v := range unassigned {
		domainSize, degree := variableMetrics(v, constraints, assignment)
		score := -domainSize // smaller domain -> higher priority
		if score > bestScore || (score == bestScore && degree > bestDegree) {
			best = v
			bestScore = score
			bestDegree = degree
		}
	}

	rest := make([]Coord, 0, len(unassigned)-1)
	for _, v := range unassigned {
		if v != best {
			rest = append(rest, v)
		}
	}
	return best, rest
}

// variableMetrics returns the effective domain size (2 minus values ruled
// out by tight constraints) and the degree (number of constraints
// referencing v).
func variableMetrics(v Coord, constraints []Constraint, assignment map[Coord]Value) (domainSize, degree int) {
	domainSize = 2
	for _, con := range constraints {
		if !containsCoord(con.Variables, v) {
			continue
		}
		degree++
		if con.Kind != MineCount {
			continue
		}
		assignedMines, unknownRemaining := constraintCounts(con, assignment)
		if assignedMines == con.Expected {
			domainSize = 1 // remaining cells forced to Empty
		} else if assignedMines+unknownRemaining == con.Expected {
			domainSize = 1 // remaining cells forced to Mine
		}
	}
	return
}

func containsCoord(list []Coord, v Coord) bool {
	for _, c := range list {
		if c == v {
			return true
		}
	}
	return false
}

// valueOrder tries Mine first when the tightest constraint touching v is
// close to saturation, else Empty first.
func valueOrder(v Coord, constraints []Constraint, assignment map[Coord]Value) []Value {
	closeToSaturation := false
	for _, con := range constraints {
		if con.Kind != MineCount || !containsCoord(con.Variables, v) {
			continue
		}
		assignedMines, unknownRemaining := constraintCounts(con, assignment)
		if unknownRemaining > 0 && con.Expected-assignedMines >= unknownRemaining-1 {
			closeToSaturation = true
		}
	}
	if closeToSaturation {
		return []Value{Mine, Empty}
	}
	return []Value{Empty, Mine}
}

// constraintCounts returns (assignedMines, unknownRemaining) for a
// MineCount constraint's variable list (excluding the anchor number cell
// at index 0).
func constraintCounts(con Constraint, assignment map[Coord]Value) (assignedMines, unknownRemaining int) {
	for i, v := range con.Variables {
		if i == 0 {
			continue // the anchor number cell itself is not a mine candidate
		}
		val, ok := assignment[v]
		if !ok {
			unknownRemaining++
			continue
		}
		if val == Mine {
			assignedMines++
		}
	}
	return
}

// consistent checks every constraint touching the just-assigned variable
// v for a contradiction, per spec §4.6's per-assignment consistency rule.
func (st *searchState) consistent(v Coord) bool {
	for _, con := range st.constraints {
		if !containsCoord(con.Variables, v) {
			continue
		}
		switch con.Kind {
		case MineCount:
			assignedMines, unknownRemaining := constraintCounts(con, st.assignment)
			if assignedMines > con.Expected {
				return false
			}
			if assignedMines+unknownRemaining < con.Expected {
				return false
			}
		case Distribution:
			// Soft prior: never prunes; scored per solution in
			// snapshotSolution instead.
		}
	}
	return true
}

// distributionConsistent reports whether the mine fraction among con's
// assigned variables stays within the soft global prior. It never prunes
// the search: snapshotSolution uses it to decide whether a complete
// solution counts the Distribution constraint as satisfied.
func (st *searchState) distributionConsistent(con Constraint) bool {
	assigned := 0
	mines := 0
	for _, v := range con.Variables {
		val, ok := st.assignment[v]
		if !ok {
			continue
		}
		assigned++
		if val == Mine {
			mines++
		}
	}
	if assigned == 0 {
		return true
	}
	return float64(mines)/float64(assigned) <= con.MaxRatio+epsilon
}

const epsilon = 1e-9

// forwardCheck applies the forced-assignment rule from spec §4.6 to every
// constraint touching an already-assigned variable: if the MineCount
// constraint's remaining unknowns exactly match its remaining slack, force
// them all to Mine or Empty. Returns the forced assignments (empty map if
// none) and whether the result remains consistent.
func (st *searchState) forwardCheck(unassigned []Coord) (map[Coord]Value, bool) {
	forced := make(map[Coord]Value)
	changed := true
	for changed {
		changed = false
		for _, con := range st.constraints {
			if con.Kind != MineCount {
				continue
			}
			assignedMines, unknownRemaining := constraintCounts(con, st.assignment)
			if unknownRemaining == 0 {
				continue
			}
			remainingVars := unassignedVarsOf(con, st.assignment)

			switch {
			case assignedMines == con.Expected:
				for _, rv := range remainingVars {
					if _, ok := forced[rv]; !ok {
						forced[rv] = Empty
						st.assignment[rv] = Empty
						changed = true
					}
				}
			case assignedMines+unknownRemaining == con.Expected:
				for _, rv := range remainingVars {
					if _, ok := forced[rv]; !ok {
						forced[rv] = Mine
						st.assignment[rv] = Mine
						changed = true
					}
				}
			}
		}
		for _, con := range st.constraints {
			if !st.consistent(anchorOf(con)) {
				return forced, false
			}
		}
	}
	_ = unassigned
	return forced, true
}

func unassignedVarsOf(con Constraint, assignment map[Coord]Value) []Coord {
	var out []Coord
	for i, v := range con.Variables {
		if i == 0 {
			continue
		}
		if _, ok := assignment[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func anchorOf(con Constraint) Coord {
	if len(con.Variables) == 0 {
		return Coord{}
	}
	return con.Variables[0]
}

// DeriveCertainties classifies every variable across all enumerated
// solutions: safe if Empty in every solution, mine if Mine in every
// solution, else its mine probability is the fraction of solutions
// assigning it Mine.
func DeriveCertainties(cells []Coord, solutions []Solution) (safe, mines []Coord, probabilities map[Coord]float64) {
	probabilities = make(map[Coord]float64, len(cells))
	if len(solutions) == 0 {
		return nil, nil, probabilities
	}

	for _, cell := range cells {
		mineCount := 0
		for _, sol := range solutions {
			if sol.Assignments[cell] == Mine {
				mineCount++
			}
		}
		prob := float64(mineCount) / float64(len(solutions))
		probabilities[cell] = prob
		switch {
		case mineCount == 0:
			safe = append(safe, cell)
		case mineCount == len(solutions):
			mines = append(mines, cell)
		}
	}

	sort.Slice(safe, func(i, j int) bool { return less(safe[i], safe[j]) })
	sort.Slice(mines, func(i, j int) bool { return less(mines[i], mines[j]) })
	return safe, mines, probabilities
}

func less(a, b Coord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
