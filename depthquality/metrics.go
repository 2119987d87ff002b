package depthquality

import (
	"math"

	"go.viam.com/rdk/rimage"
	"gonum.org/v1/gonum/stat"
)

// Constants fixing the metric formulas. They are deliberately not
// configurable; the thresholds in Config are the tuning surface.
const (
	// smoothnessRadius is the half-width of the square neighborhood used
	// for local dispersion, giving a 5x5 window.
	smoothnessRadius = 2
	// smoothnessWindowMinSamples excludes windows too sparse to carry a
	// dispersion estimate.
	smoothnessWindowMinSamples = 2
	// smoothnessSaturation is the mean window coefficient of variation at
	// which a frame counts as fully rough.
	smoothnessSaturation = 0.25
	// edgeBoundaryFloor is the Sobel gradient magnitude, in millimeters,
	// separating a depth discontinuity from sensor jitter; a step of about
	// 40mm between neighboring surfaces crosses it.
	edgeBoundaryFloor = 160.0
	// edgeDensitySaturation is the fraction of gradient sites on a
	// discontinuity at which a frame counts as all edges.
	edgeDensitySaturation = 0.25
	// noiseSaturation scales Laplacian variance (mm^2) into a score; a
	// frame sitting exactly at the saturation variance scores 0.5.
	noiseSaturation = 1000.0
	// noiseMinSites excludes frames with too few full Laplacian stencils
	// for a variance to mean anything.
	noiseMinSites = 2
)

// CoverageScore is the fraction of pixels carrying a valid reading. A fully
// dense frame scores 1.0 and a frame the sensor missed entirely scores 0.0.
func CoverageScore(dm *rimage.DepthMap, r DepthRange) float64 {
	width, height := dm.Width(), dm.Height()
	valid := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if r.Contains(dm.GetDepth(x, y)) {
				valid++
			}
		}
	}
	return float64(valid) / float64(width*height)
}

// SmoothnessScore measures local depth dispersion over a sliding 5x5
// neighborhood. Each window with at least two valid samples contributes the
// coefficient of variation of those samples; the mean over all qualifying
// windows maps linearly onto [0,1], so perfectly flat neighborhoods score
// exactly 1.0 and dispersion at or beyond the saturation bound scores
// exactly 0.0. A frame with no qualifying window scores 0.0: there is no
// evidence it is smooth.
func SmoothnessScore(dm *rimage.DepthMap, r DepthRange) float64 {
	width, height := dm.Width(), dm.Height()
	var dispersionSum float64
	windows := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, sumSq float64
			n := 0
			for dy := -smoothnessRadius; dy <= smoothnessRadius; dy++ {
				for dx := -smoothnessRadius; dx <= smoothnessRadius; dx++ {
					xx, yy := x+dx, y+dy
					if !dm.Contains(xx, yy) {
						continue
					}
					d := dm.GetDepth(xx, yy)
					if !r.Contains(d) {
						continue
					}
					v := float64(d)
					sum += v
					sumSq += v * v
					n++
				}
			}
			if n < smoothnessWindowMinSamples {
				continue
			}
			mean := sum / float64(n)
			variance := sumSq/float64(n) - mean*mean
			if variance < 0 {
				// round-off on flat windows
				variance = 0
			}
			// valid samples are nonzero, so mean >= 1mm
			dispersionSum += math.Sqrt(variance) / mean
			windows++
		}
	}
	if windows == 0 {
		return 0
	}
	dispersion := dispersionSum / float64(windows)
	if dispersion >= smoothnessSaturation {
		return 0
	}
	return 1 - dispersion/smoothnessSaturation
}

// sobelX and sobelY are the standard 3x3 Sobel kernels.
var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// sobelAt convolves both Sobel kernels at (x, y). It reports ok=false unless
// the full 3x3 neighborhood holds valid readings, so gradients never mix
// real surfaces with dropout.
func sobelAt(dm *rimage.DepthMap, r DepthRange, x, y int) (gx, gy float64, ok bool) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			d := dm.GetDepth(x+dx, y+dy)
			if !r.Contains(d) {
				return 0, 0, false
			}
			v := float64(d)
			gx += v * sobelX[dy+1][dx+1]
			gy += v * sobelY[dy+1][dx+1]
		}
	}
	return gx, gy, true
}

func hasBoundaryNeighbor(boundary []bool, width, height, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			xx, yy := x+dx, y+dy
			if xx < 0 || yy < 0 || xx >= width || yy >= height {
				continue
			}
			if boundary[yy*width+xx] {
				return true
			}
		}
	}
	return false
}

// EdgeQualityScore rates how well depth discontinuities form coherent
// boundaries. Sobel gradients are taken at interior pixels whose full 3x3
// neighborhood is valid; a pixel whose gradient magnitude crosses the
// boundary floor sits on a discontinuity. A discontinuity adjacent to
// another belongs to an edge, while an isolated one is almost always a
// spike. The score is the coherent fraction of discontinuities damped by
// overall discontinuity density: crisp sparse edges score high, dense
// scattered jumps score low. A frame with assessable sites and no
// discontinuities at all scores 1.0; a frame with no assessable site
// scores 0.0.
func EdgeQualityScore(dm *rimage.DepthMap, r DepthRange) float64 {
	width, height := dm.Width(), dm.Height()
	boundary := make([]bool, width*height)
	sites, boundaries := 0, 0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx, gy, ok := sobelAt(dm, r, x, y)
			if !ok {
				continue
			}
			sites++
			if math.Hypot(gx, gy) > edgeBoundaryFloor {
				boundary[y*width+x] = true
				boundaries++
			}
		}
	}
	if sites == 0 {
		return 0
	}
	if boundaries == 0 {
		return 1
	}
	coherent := 0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			if boundary[y*width+x] && hasBoundaryNeighbor(boundary, width, height, x, y) {
				coherent++
			}
		}
	}
	coherence := float64(coherent) / float64(boundaries)
	density := float64(boundaries) / float64(sites)
	if density > edgeDensitySaturation {
		density = edgeDensitySaturation
	}
	return coherence * (1 - density/edgeDensitySaturation)
}

// NoiseScore rates pixel-scale fluctuation with a 4-neighbor Laplacian.
// Responses are collected wherever the full stencil holds valid readings;
// their variance maps through 1/(1+v/saturation), so flat or gently sloped
// frames score near 1.0 and salt-and-pepper depth scores near 0.0. Fewer
// than two stencil sites leave nothing to assess and score 0.0.
func NoiseScore(dm *rimage.DepthMap, r DepthRange) float64 {
	width, height := dm.Width(), dm.Height()
	responses := make([]float64, 0, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := dm.GetDepth(x, y)
			up := dm.GetDepth(x, y-1)
			down := dm.GetDepth(x, y+1)
			left := dm.GetDepth(x-1, y)
			right := dm.GetDepth(x+1, y)
			if !r.Contains(center) || !r.Contains(up) || !r.Contains(down) ||
				!r.Contains(left) || !r.Contains(right) {
				continue
			}
			responses = append(responses,
				4*float64(center)-float64(up)-float64(down)-float64(left)-float64(right))
		}
	}
	if len(responses) < noiseMinSites {
		return 0
	}
	variance := stat.PopVariance(responses, nil)
	return 1 / (1 + variance/noiseSaturation)
}
