package csp

// ActionKind mirrors the SolverAction kinds a component produces.
type ActionKind int

const (
	Reveal ActionKind = iota
	Flag
	Guess
)

func (k ActionKind) String() string {
	switch k {
	case Reveal:
		return "Reveal"
	case Flag:
		return "Flag"
	default:
		return "Guess"
	}
}

// Action is the solver's output before it reaches ActionQueue: a grid
// coordinate plus the recommended kind, confidence, and a short reasoning
// string for observability/debugging.
type Action struct {
	Kind       ActionKind
	Coord      Coord
	Confidence float64
	Reasoning  string
	Engine     string
}

const (
	maxMonteCarloGuesses  = 5
	maxNeuralAssistGuesses = 3

	monteCarloGuessConfidence  = 0.3
	neuralAssistGuessConfidence = 0.4
)

// ActionsForComponent derives the solver actions for a single component
// given its solving outcome, per spec §4.6's "Output" clause.
func ActionsForComponent(c Component, safe, mines []Coord, probabilities map[Coord]float64) []Action {
	var actions []Action
	for _, coord := range safe {
		actions = append(actions, Action{Kind: Reveal, Coord: coord, Confidence: 1.0, Reasoning: "safe in all enumerated solutions", Engine: "csp"})
	}
	for _, coord := range mines {
		actions = append(actions, Action{Kind: Flag, Coord: coord, Confidence: 1.0, Reasoning: "mine in all enumerated solutions", Engine: "csp"})
	}
	if len(safe) > 0 || len(mines) > 0 {
		return actions
	}

	switch c.Type {
	case MonteCarlo:
		for _, coord := range lowestProbabilityCells(probabilities, maxMonteCarloGuesses) {
			actions = append(actions, Action{
				Kind: Guess, Coord: coord, Confidence: monteCarloGuessConfidence,
				Reasoning: "lowest sampled mine frequency", Engine: "monte_carlo",
			})
		}
	case NeuralAssist:
		for _, coord := range lowestProbabilityCells(probabilities, maxNeuralAssistGuesses) {
			actions = append(actions, Action{
				Kind: Guess, Coord: coord, Confidence: neuralAssistGuessConfidence,
				Reasoning: "lowest heuristic mine score", Engine: "neural_assist",
			})
		}
	}
	return actions
}
