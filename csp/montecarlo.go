package csp

import "math/rand"

// SampleMonteCarlo estimates per-cell mine probability for a component by
// rejection-sampling uniformly random consistent assignments: draw a
// random Mine/Empty value per unknown cell, reject the sample if any
// MineCount constraint is violated, and accumulate per-cell mine counts
// over the accepted samples (spec §4.6 Open Question: "a true sampling
// simulator... rejecting constraint violations, counting per-cell mine
// frequency over N samples").
func SampleMonteCarlo(rng *rand.Rand, c Component, samples int, maxRatio float64) map[Coord]float64 {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	constraints := buildConstraints(c, maxRatio)

	mineCounts := make(map[Coord]int, len(c.Cells))
	accepted := 0

	const maxAttempts = 50 // per-sample rejection budget before giving up
	for i := 0; i < samples; i++ {
		assignment := make(map[Coord]Value, len(c.Cells))
		ok := false
		for attempt := 0; attempt < maxAttempts; attempt++ {
			for _, cell := range c.Cells {
				if rng.Intn(2) == 0 {
					assignment[cell] = Empty
				} else {
					assignment[cell] = Mine
				}
			}
			if satisfiesAll(constraints, assignment) {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		accepted++
		for cell, v := range assignment {
			if v == Mine {
				mineCounts[cell]++
			}
		}
	}

	probabilities := make(map[Coord]float64, len(c.Cells))
	if accepted == 0 {
		// No consistent sample found within budget; fall back to a
		// uniform prior so callers still get a usable ranking.
		for _, cell := range c.Cells {
			probabilities[cell] = maxRatio
		}
		return probabilities
	}
	for _, cell := range c.Cells {
		probabilities[cell] = float64(mineCounts[cell]) / float64(accepted)
	}
	return probabilities
}

func satisfiesAll(constraints []Constraint, assignment map[Coord]Value) bool {
	for _, con := range constraints {
		switch con.Kind {
		case MineCount:
			mines := 0
			for i, v := range con.Variables {
				if i == 0 {
					continue
				}
				if assignment[v] == Mine {
					mines++
				}
			}
			if mines != con.Expected {
				return false
			}
		}
	}
	return true
}
