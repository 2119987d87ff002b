// Package depthquality scores depth camera frames and decides whether they
// are clean enough to hand to a volumetric reconstruction consumer.
//
// Every frame receives four metric scores in [0,1] (coverage, smoothness,
// edge quality, noise), blended into one overall score by a fixed weighting.
// A Filter applies configured thresholds to those scores in a fixed order
// and keeps per-session acceptance statistics. Rejecting a frame is an
// ordinary outcome, not an error: callers only see errors for malformed
// input or invalid configuration.
package depthquality

import (
	"time"

	"go.viam.com/rdk/rimage"
)

// Frame is a single depth image together with its capture time. The depth
// map is borrowed for the duration of a call and never mutated or retained.
type Frame struct {
	Depth      *rimage.DepthMap
	CapturedAt time.Time
}

// DepthRange bounds the sensor readings treated as real returns, in
// millimeters. A zero Min or Max leaves that side unbounded, so the zero
// value accepts any nonzero reading, matching the convention that a depth
// of 0 means "no reading".
type DepthRange struct {
	Min rimage.Depth
	Max rimage.Depth
}

// Contains reports whether d is a usable reading under the range.
func (r DepthRange) Contains(d rimage.Depth) bool {
	if d == 0 || d < r.Min {
		return false
	}
	return r.Max == 0 || d <= r.Max
}
