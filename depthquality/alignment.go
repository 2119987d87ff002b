package depthquality

import "go.viam.com/rdk/rimage"

// AlignmentScore reports whether a registered color image can be trusted to
// correspond to dm pixel for pixel: 1.0 when both rasters share dimensions
// and each carries content, 0.0 otherwise. It is a registration sanity
// check rather than a quality metric, so it stays out of the blended score.
func AlignmentScore(col *rimage.Image, dm *rimage.DepthMap) float64 {
	if col == nil || dm == nil {
		return 0
	}
	if col.Width() != dm.Width() || col.Height() != dm.Height() {
		return 0
	}
	if dm.Width() == 0 || dm.Height() == 0 {
		return 0
	}
	colorContent := false
	for y := 0; y < col.Height() && !colorContent; y++ {
		for x := 0; x < col.Width(); x++ {
			if col.GetXY(x, y) != rimage.Black {
				colorContent = true
				break
			}
		}
	}
	if !colorContent {
		return 0
	}
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			if dm.GetDepth(x, y) != 0 {
				return 1
			}
		}
	}
	return 0
}
