package recognizer

import (
	"image"
	"time"

	"sweepcore/gridstore"
)

const (
	defaultColorThreshold    = 0.8
	defaultTemplateThreshold = 0.7

	colorThresholdMin = 0.5
	colorThresholdMax = 0.95

	templateThresholdMin = 0.4
	templateThresholdMax = 0.9

	varianceEmptyCutoff = 100.0
	varianceMineCutoff  = 2000.0

	edgeLow  = 50.0
	edgeHigh = 150.0
)

// Recognizer runs the three-tier classification hierarchy against a
// template set supplied by a TemplateSource.
type Recognizer struct {
	colorThreshold    float64
	templateThreshold float64

	templates []CellTemplate
}

// New constructs a Recognizer seeded with source's bootstrap templates.
func New(source TemplateSource) *Recognizer {
	r := &Recognizer{
		colorThreshold:    defaultColorThreshold,
		templateThreshold: defaultTemplateThreshold,
	}
	if source != nil {
		r.templates = append(r.templates, source.Templates()...)
	}
	return r
}

// AddTemplate accepts a runtime template addition, deriving its color
// signature automatically.
func (r *Recognizer) AddTemplate(symbol gridstore.Symbol, pixels image.Image) {
	r.templates = append(r.templates, CellTemplate{
		Symbol:         symbol,
		Pixels:         pixels,
		ColorSignature: computeColorSignature(pixels),
		EdgeMap:        sobelEdgeMap(pixels, edgeLow, edgeHigh),
	})
}

// Classify runs the tier hierarchy against patch, returning the first
// tier's result that clears its threshold.
func (r *Recognizer) Classify(patch image.Image) Match {
	start := time.Now()

	if m, ok := r.classifyColor(patch); ok {
		m.ProcessingTime = time.Since(start).Seconds()
		return m
	}
	if m, ok := r.classifyVariance(patch); ok {
		m.ProcessingTime = time.Since(start).Seconds()
		return m
	}
	if m, ok := r.classifyTemplate(patch); ok {
		m.ProcessingTime = time.Since(start).Seconds()
		return m
	}

	return Match{
		Symbol:         gridstore.Unknown,
		Confidence:     0,
		Tier:           None,
		ProcessingTime: time.Since(start).Seconds(),
	}
}

// classifyColor implements Tier 1.
func (r *Recognizer) classifyColor(patch image.Image) (Match, bool) {
	if len(r.templates) == 0 {
		return Match{}, false
	}
	sig := computeColorSignature(patch)

	var best CellTemplate
	bestScore := -1.0
	for _, tmpl := range r.templates {
		score := 0.4*colorScore(sig, tmpl.ColorSignature) +
			0.3*varianceScore(sig, tmpl.ColorSignature) +
			0.3*histScore(sig, tmpl.ColorSignature)
		if score > bestScore {
			bestScore = score
			best = tmpl
		}
	}

	if bestScore > r.colorThreshold {
		return Match{Symbol: best.Symbol, Confidence: 0.9, Tier: Color}, true
	}
	return Match{}, false
}

// classifyVariance implements Tier 2.
func (r *Recognizer) classifyVariance(patch image.Image) (Match, bool) {
	sig := computeColorSignature(patch)
	switch {
	case sig.Variance < varianceEmptyCutoff:
		return Match{Symbol: gridstore.Empty, Confidence: 0.8, Tier: Variance}, true
	case sig.Variance > varianceMineCutoff:
		return Match{Symbol: gridstore.Mine, Confidence: 0.8, Tier: Variance}, true
	default:
		return Match{}, false
	}
}

// classifyTemplate implements Tier 3.
func (r *Recognizer) classifyTemplate(patch image.Image) (Match, bool) {
	if len(r.templates) == 0 {
		return Match{}, false
	}
	patchEdges := sobelEdgeMap(patch, edgeLow, edgeHigh)

	var best CellTemplate
	bestNCC := -1.0
	for _, tmpl := range r.templates {
		edges := tmpl.EdgeMap
		if edges == nil {
			edges = sobelEdgeMap(tmpl.Pixels, edgeLow, edgeHigh)
		}
		ncc := normalizedCrossCorrelation(patchEdges, edges)
		if ncc > bestNCC {
			bestNCC = ncc
			best = tmpl
		}
	}

	if bestNCC > r.templateThreshold {
		return Match{Symbol: best.Symbol, Confidence: bestNCC, Tier: Template}, true
	}
	return Match{}, false
}

// ApplyFeedback adjusts the adaptive thresholds given a recent
// success_rate, per spec §4.4: decrease by ~10% when success < 0.6,
// increase by ~5% when success > 0.9, clamped to documented bounds.
func (r *Recognizer) ApplyFeedback(successRate float64) {
	switch {
	case successRate < 0.6:
		r.colorThreshold = clamp(r.colorThreshold*0.9, colorThresholdMin, colorThresholdMax)
		r.templateThreshold = clamp(r.templateThreshold*0.9, templateThresholdMin, templateThresholdMax)
	case successRate > 0.9:
		r.colorThreshold = clamp(r.colorThreshold*1.05, colorThresholdMin, colorThresholdMax)
		r.templateThreshold = clamp(r.templateThreshold*1.05, templateThresholdMin, templateThresholdMax)
	}
}

// Thresholds exposes the current adaptive threshold values (for tests and
// observability).
func (r *Recognizer) Thresholds() (color, template float64) {
	return r.colorThreshold, r.templateThreshold
}

// SetThresholds seeds the starting color/template thresholds, clamped to
// the documented bounds. Intended for construction-time configuration;
// ApplyFeedback continues to adapt from whatever is set here.
func (r *Recognizer) SetThresholds(color, template float64) {
	r.colorThreshold = clamp(color, colorThresholdMin, colorThresholdMax)
	r.templateThreshold = clamp(template, templateThresholdMin, templateThresholdMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
