package recognizer

import (
	"image"
	"math"
)

// computeColorSignature derives a ColorSignature from img, per spec §4.4
// Tier 1: mean RGB, color variance, and a normalized 8x8x8 RGB histogram.
func computeColorSignature(img image.Image) ColorSignature {
	b := img.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return ColorSignature{}
	}

	var sig ColorSignature
	var sumR, sumG, sumB, sumSq float64
	hist := [8][8][8]float64{}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			r8, g8, b8 := float64(r>>8), float64(g>>8), float64(bl>>8)
			sumR += r8
			sumG += g8
			sumB += b8
			sumSq += (r8*0.299 + g8*0.587 + b8*0.114) * (r8*0.299 + g8*0.587 + b8*0.114)

			hist[int(r8)/32][int(g8)/32][int(b8)/32]++
		}
	}

	sig.MeanR = sumR / n
	sig.MeanG = sumG / n
	sig.MeanB = sumB / n
	mean := sig.MeanR*0.299 + sig.MeanG*0.587 + sig.MeanB*0.114
	sig.Variance = sumSq/n - mean*mean
	if sig.Variance < 0 {
		sig.Variance = 0
	}

	for i := range hist {
		for j := range hist[i] {
			for k := range hist[i][j] {
				hist[i][j][k] /= n
			}
		}
	}
	sig.Histogram = hist
	return sig
}

// colorScore returns a Euclidean-distance-based similarity in [0,1]
// between two mean colors: 1 when identical, decaying toward 0 as the
// distance approaches the maximum possible (the diagonal of the RGB cube).
func colorScore(a, b ColorSignature) float64 {
	dr := a.MeanR - b.MeanR
	dg := a.MeanG - b.MeanG
	db := a.MeanB - b.MeanB
	dist := math.Sqrt(dr*dr + dg*dg + db*db)
	const maxDist = 441.67295593 // sqrt(255^2 * 3)
	score := 1 - dist/maxDist
	if score < 0 {
		score = 0
	}
	return score
}

// varianceScore returns a similarity in [0,1] based on the absolute
// difference between two color variances, normalized against the maximum
// possible 8-bit luma variance.
func varianceScore(a, b ColorSignature) float64 {
	const maxVariance = 127.5 * 127.5
	diff := abs(a.Variance - b.Variance)
	score := 1 - diff/maxVariance
	if score < 0 {
		score = 0
	}
	return score
}

// histScore returns the histogram intersection (correlation proxy) of two
// normalized histograms, in [0,1].
func histScore(a, b ColorSignature) float64 {
	var sum float64
	for i := range a.Histogram {
		for j := range a.Histogram[i] {
			for k := range a.Histogram[i][j] {
				av, bv := a.Histogram[i][j][k], b.Histogram[i][j][k]
				if av < bv {
					sum += av
				} else {
					sum += bv
				}
			}
		}
	}
	return sum
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
