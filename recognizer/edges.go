package recognizer

import (
	"image"
	"math"
)

const canonicalCellSize = 24

// sobelEdgeMap produces a boolean edge map from the Sobel gradient
// magnitude, standing in for the Canny-like edge detector named in spec
// §4.4 Tier 3. A pixel is an edge when its magnitude is at least low; high
// is accepted but not used, so there is no hysteresis step and no
// non-maximum suppression. Border pixels are never edges.
func sobelEdgeMap(img image.Image, low, high float64) [][]bool {
	resized := resizeToCanonical(img)
	gray := toGray(resized)

	h := len(gray)
	w := 0
	if h > 0 {
		w = len(gray[0])
	}

	edges := make([][]bool, h)
	for y := range edges {
		edges[y] = make([]bool, w)
	}

	gx := [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sx, sy float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					v := gray[y+dy][x+dx]
					sx += v * gx[dy+1][dx+1]
					sy += v * gy[dy+1][dx+1]
				}
			}
			mag := math.Sqrt(sx*sx + sy*sy)
			edges[y][x] = mag >= low
		}
	}
	return edges
}

// toGray rescales img (already resized to canonical dimensions) into a
// plain 2-D luma array for convolution.
func toGray(img image.Image) [][]float64 {
	b := img.Bounds()
	out := make([][]float64, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		out[y] = make([]float64, b.Dx())
		for x := 0; x < b.Dx(); x++ {
			out[y][x] = grayValueAt(img, b.Min.X+x, b.Min.Y+y)
		}
	}
	return out
}

func grayValueAt(img image.Image, x, y int) float64 {
	r, g, bl, _ := img.At(x, y).RGBA()
	r8, g8, b8 := float64(r>>8), float64(g>>8), float64(bl>>8)
	return 0.299*r8 + 0.587*g8 + 0.114*b8
}

// resizeToCanonical nearest-neighbor resizes img to the canonical 24x24
// cell size if its dimensions differ, per spec §4.4 Tier 3.
func resizeToCanonical(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() == canonicalCellSize && b.Dy() == canonicalCellSize {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, canonicalCellSize, canonicalCellSize))
	for y := 0; y < canonicalCellSize; y++ {
		sy := b.Min.Y + y*b.Dy()/canonicalCellSize
		for x := 0; x < canonicalCellSize; x++ {
			sx := b.Min.X + x*b.Dx()/canonicalCellSize
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}

// normalizedCrossCorrelation computes the NCC between two equal-shaped
// boolean edge maps, treating true as 1.0 and false as 0.0.
func normalizedCrossCorrelation(a, b [][]bool) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var sumA, sumB, sumAB, sumAA, sumBB float64
	n := 0
	for y := range a {
		if len(a[y]) != len(b[y]) {
			return 0
		}
		for x := range a[y] {
			av := boolToF(a[y][x])
			bv := boolToF(b[y][x])
			sumA += av
			sumB += bv
			sumAB += av * bv
			sumAA += av * av
			sumBB += bv * bv
			n++
		}
	}
	if n == 0 {
		return 0
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)
	numerator := sumAB - float64(n)*meanA*meanB
	denomA := sumAA - float64(n)*meanA*meanA
	denomB := sumBB - float64(n)*meanB*meanB
	denom := math.Sqrt(denomA * denomB)
	if denom == 0 {
		return 0
	}
	ncc := numerator / denom
	// Map the [-1,1] correlation coefficient onto [0,1] confidence space.
	return (ncc + 1) / 2
}

func boolToF(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
