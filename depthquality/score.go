package depthquality

import (
	"math"

	"github.com/pkg/errors"
	"go.viam.com/rdk/rimage"
)

// Score carries the per-metric quality of one depth frame plus their
// weighted blend. Every field lies in [0,1].
type Score struct {
	Coverage    float64
	Smoothness  float64
	EdgeQuality float64
	Noise       float64
	Overall     float64
}

// Weights blends the four per-frame metrics into the overall score.
type Weights struct {
	Coverage    float64
	Smoothness  float64
	EdgeQuality float64
	Noise       float64
}

// defaultWeights is the documented blend. Coverage dominates because a frame
// the sensor barely saw is useless no matter how clean the rest looks.
var defaultWeights = Weights{
	Coverage:    0.4,
	Smoothness:  0.3,
	EdgeQuality: 0.2,
	Noise:       0.1,
}

const weightSumTolerance = 1e-9

// Validate returns an error unless every weight lies in [0,1] and the
// weights sum to 1.
func (w Weights) Validate() error {
	for _, entry := range []struct {
		name  string
		value float64
	}{
		{"coverage", w.Coverage},
		{"smoothness", w.Smoothness},
		{"edge quality", w.EdgeQuality},
		{"noise", w.Noise},
	} {
		if entry.value < 0 || entry.value > 1 {
			return errors.Errorf("%s weight must be within [0,1], got %v", entry.name, entry.value)
		}
	}
	if sum := w.Coverage + w.Smoothness + w.EdgeQuality + w.Noise; math.Abs(sum-1) > weightSumTolerance {
		return errors.Errorf("weights must sum to 1, got %v", sum)
	}
	return nil
}

// blend folds the per-metric scores into one value, clamped so float
// round-off in the weight sum can never push a perfect frame past 1.
func (w Weights) blend(s Score) float64 {
	v := w.Coverage*s.Coverage + w.Smoothness*s.Smoothness + w.EdgeQuality*s.EdgeQuality + w.Noise*s.Noise
	return clamp01(v)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// ScoreFrame computes all four metrics for dm and blends them with the
// default weights. dm must be non-nil with positive dimensions; Filter.Assess
// enforces that for callers going through a session.
func ScoreFrame(dm *rimage.DepthMap, r DepthRange) Score {
	s := Score{
		Coverage:    CoverageScore(dm, r),
		Smoothness:  SmoothnessScore(dm, r),
		EdgeQuality: EdgeQualityScore(dm, r),
		Noise:       NoiseScore(dm, r),
	}
	s.Overall = defaultWeights.blend(s)
	return s
}
