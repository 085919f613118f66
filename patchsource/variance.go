package patchsource

import "image"

// varianceConfidence returns the normalized [0,1] variance of the
// grayscale pixel values in img, used as a patch's base confidence per
// spec §4.3 ("confidence is derived from variance of the pixel block,
// normalized to [0,1]").
func varianceConfidence(img image.Image) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	// Accumulate around the first pixel's value (variance is
	// shift-invariant) so a flat patch sums exact zeros.
	shift := grayValue(img, b.Min.X, b.Min.Y)
	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := grayValue(img, x, y) - shift
			sum += g
			sumSq += g * g
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}

	// Normalize against the maximum possible variance of an 8-bit
	// grayscale signal (127.5^2), matching the [0,1] contract without
	// requiring a running calibration pass.
	const maxVariance = 127.5 * 127.5
	normalized := variance / maxVariance
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}

// grayValue returns the ITU-R 601 luma of the pixel at (x,y), in [0,255].
func grayValue(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	// RGBA() returns 16-bit-scaled components; rescale to 8-bit before
	// combining.
	r8 := float64(r >> 8)
	g8 := float64(g >> 8)
	b8 := float64(b >> 8)
	return 0.299*r8 + 0.587*g8 + 0.114*b8
}
