package csp

import "sort"

// NeuralAssistProbabilities returns a cheap heuristic ranking of mine
// probability for a NeuralAssist component, used in place of an actual
// learned model (spec §9 Open Question: NeuralAssist is sanctioned to
// remain a documented low-confidence stub). Cells with fewer constraining
// number-neighbors are ranked as relatively safer, which is a weak but
// directionally correct proxy in the absence of real inference.
func NeuralAssistProbabilities(c Component) map[Coord]float64 {
	probabilities := make(map[Coord]float64, len(c.Cells))
	if len(c.Cells) == 0 {
		return probabilities
	}

	maxNeighbors := 0
	neighborCounts := make(map[Coord]int, len(c.Cells))
	for _, cell := range c.Cells {
		count := 0
		for numberCoord := range c.NumberCells {
			if isNeighbor(numberCoord, cell) {
				count++
			}
		}
		neighborCounts[cell] = count
		if count > maxNeighbors {
			maxNeighbors = count
		}
	}

	for _, cell := range c.Cells {
		if maxNeighbors == 0 {
			probabilities[cell] = 0.5
			continue
		}
		probabilities[cell] = float64(neighborCounts[cell]) / float64(maxNeighbors)
	}
	return probabilities
}

// lowestProbabilityCells returns up to n cells with the lowest mine
// probability, used to pick Guess targets.
func lowestProbabilityCells(probabilities map[Coord]float64, n int) []Coord {
	type scored struct {
		coord Coord
		prob  float64
	}
	list := make([]scored, 0, len(probabilities))
	for c, p := range probabilities {
		list = append(list, scored{c, p})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].prob != list[j].prob {
			return list[i].prob < list[j].prob
		}
		return less(list[i].coord, list[j].coord)
	})
	if n > len(list) {
		n = len(list)
	}
	out := make([]Coord, n)
	for i := 0; i < n; i++ {
		out[i] = list[i].coord
	}
	return out
}
