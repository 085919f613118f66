package recognizer

import (
	"image"
	"image/color"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"sweepcore/gridstore"
)

func flatPatch(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func noisyPatch() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			if (x*7+y*13)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

type staticTemplates struct{ templates []CellTemplate }

func (s staticTemplates) Templates() []CellTemplate { return s.templates }

func TestClassifyVarianceTierHandlesEmptyAndMine(t *testing.T) {
	Convey("Given a recognizer with no templates", t, func() {
		r := New(nil)

		Convey("A flat low-variance patch classifies as Empty via Tier 2", func() {
			m := r.Classify(flatPatch(color.Gray{Y: 200}))
			So(m.Symbol, ShouldEqual, gridstore.Empty)
			So(m.Tier, ShouldEqual, Variance)
			So(m.Confidence, ShouldEqual, 0.8)
		})

		Convey("A high-variance patch classifies as Mine via Tier 2", func() {
			m := r.Classify(noisyPatch())
			So(m.Symbol, ShouldEqual, gridstore.Mine)
			So(m.Tier, ShouldEqual, Variance)
		})
	})
}

func TestClassifyColorTierWinsWhenTemplateMatches(t *testing.T) {
	emptyTemplate := CellTemplate{
		Symbol:         gridstore.Empty,
		Pixels:         flatPatch(color.Gray{Y: 180}),
		ColorSignature: computeColorSignature(flatPatch(color.Gray{Y: 180})),
	}
	r := New(staticTemplates{templates: []CellTemplate{emptyTemplate}})

	m := r.Classify(flatPatch(color.Gray{Y: 180}))
	if m.Tier != Color {
		t.Fatalf("expected Color tier for an exact signature match, got %v", m.Tier)
	}
	if m.Symbol != gridstore.Empty {
		t.Fatalf("expected Empty symbol, got %v", m.Symbol)
	}
	if m.Confidence != 0.9 {
		t.Fatalf("expected 0.9 confidence at Color tier, got %v", m.Confidence)
	}
}

func TestAddTemplateDerivesSignature(t *testing.T) {
	r := New(nil)
	r.AddTemplate(gridstore.Number(3), flatPatch(color.RGBA{R: 10, G: 200, B: 10, A: 255}))

	if len(r.templates) != 1 {
		t.Fatalf("expected 1 template after AddTemplate, got %d", len(r.templates))
	}
	if r.templates[0].ColorSignature.MeanG < r.templates[0].ColorSignature.MeanR {
		t.Fatalf("expected green channel to dominate mean color for a green patch")
	}
}

func TestApplyFeedbackAdjustsAndClampsThresholds(t *testing.T) {
	Convey("Given a recognizer at default thresholds", t, func() {
		r := New(nil)

		Convey("Low success rate decreases thresholds", func() {
			before, _ := r.Thresholds()
			r.ApplyFeedback(0.3)
			after, _ := r.Thresholds()
			So(after, ShouldBeLessThan, before)
		})

		Convey("High success rate increases thresholds, clamped to the documented bound", func() {
			for i := 0; i < 50; i++ {
				r.ApplyFeedback(0.95)
			}
			color, template := r.Thresholds()
			So(color, ShouldBeLessThanOrEqualTo, colorThresholdMax)
			So(template, ShouldBeLessThanOrEqualTo, templateThresholdMax)
		})

		Convey("Repeated low success rates clamp at the documented floor", func() {
			for i := 0; i < 50; i++ {
				r.ApplyFeedback(0.1)
			}
			color, template := r.Thresholds()
			So(color, ShouldBeGreaterThanOrEqualTo, colorThresholdMin)
			So(template, ShouldBeGreaterThanOrEqualTo, templateThresholdMin)
		})
	})
}

func TestClassifyFallsThroughToNoneWithoutTemplates(t *testing.T) {
	// A mid-variance, untemplated patch (neither flat nor extremely
	// noisy) should fall through every tier.
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			v := uint8(100 + ((x+y)%20)*4) // luma variance ~537, between the 100 and 2000 cutoffs
			img.Set(x, y, color.Gray{Y: v})
		}
	}
	r := New(nil)
	m := r.Classify(img)
	if m.Tier != None {
		t.Fatalf("expected no tier to match, got %v (symbol %v)", m.Tier, m.Symbol)
	}
	if m.Symbol != gridstore.Unknown {
		t.Fatalf("expected Unknown symbol as the no-match sentinel, got %v", m.Symbol)
	}
}
