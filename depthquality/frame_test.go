package depthquality

import (
	"go.viam.com/rdk/rimage"
)

// flatFrame is fully valid at a constant depth.
func flatFrame(width, height int, d rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dm.Set(x, y, d)
		}
	}
	return dm
}

// slopeFrame rises one millimeter per column, a clean gradient with no
// pixel-scale fluctuation.
func slopeFrame(width, height int, base rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dm.Set(x, y, base+rimage.Depth(x))
		}
	}
	return dm
}

// checkerFrame alternates base+amp and base-amp. Local dispersion is
// maximal while the Sobel kernels cancel, so it exercises smoothness and
// noise without touching edge quality.
func checkerFrame(width, height int, base, amp rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				dm.Set(x, y, base+amp)
			} else {
				dm.Set(x, y, base-amp)
			}
		}
	}
	return dm
}

// partialFrame fills only the leftmost validColumns columns.
func partialFrame(width, height, validColumns int, d rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < validColumns; x++ {
			dm.Set(x, y, d)
		}
	}
	return dm
}

// stepFrame is two flat planes split by a vertical discontinuity.
func stepFrame(width, height int, left, right rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				dm.Set(x, y, left)
			} else {
				dm.Set(x, y, right)
			}
		}
	}
	return dm
}

// speckledFrame is flat except for isolated spikes on a sparse lattice,
// the salt-and-pepper shape a failing sensor produces.
func speckledFrame(width, height int, base, spike rimage.Depth, every int) *rimage.DepthMap {
	dm := flatFrame(width, height, base)
	for y := every; y < height-1; y += every {
		for x := every; x < width-1; x += every {
			dm.Set(x, y, base+spike)
		}
	}
	return dm
}
