// Package recognizer implements the three-tier symbol classifier (color
// signature → variance → template correlation), spec §4.4.
package recognizer

import (
	"image"

	"sweepcore/gridstore"
)

// Tier identifies which classification stage produced a match.
type Tier int

const (
	None Tier = iota
	Color
	Variance
	Template
)

func (t Tier) String() string {
	switch t {
	case Color:
		return "Color"
	case Variance:
		return "Variance"
	case Template:
		return "Template"
	default:
		return "None"
	}
}

// Match is the result of classifying a single patch.
type Match struct {
	Symbol         gridstore.Symbol
	Confidence     float64
	Tier           Tier
	ProcessingTime float64 // seconds, wall-clock of the classification call
}

// ColorSignature summarizes a patch's color distribution: mean RGB, color
// variance, and a normalized 8x8x8 RGB histogram (spec §3.4/§4.4).
type ColorSignature struct {
	MeanR, MeanG, MeanB float64
	Variance            float64
	Histogram           [8][8][8]float64
}

// CellTemplate is a known-symbol reference patch plus its precomputed
// recognition features.
type CellTemplate struct {
	Symbol            gridstore.Symbol
	Pixels            image.Image
	ColorSignature    ColorSignature
	VarianceThreshold float64
	EdgeMap           [][]bool
}

// TemplateSource supplies the bootstrap template set (Empty, Unknown,
// digits 1..8). Runtime additions go through Recognizer.AddTemplate, not
// through the source.
type TemplateSource interface {
	Templates() []CellTemplate
}
