package depthquality

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Default decision thresholds, the balanced midpoint between letting sensor
// garbage through and starving the consumer of frames.
const (
	DefaultMinQuality    = 0.5
	DefaultMinCoverage   = 0.3
	DefaultMinSmoothness = 0.4
)

// Config fixes one filter session's behavior. It is copied on construction
// and immutable afterwards; changing thresholds means starting a new
// session.
type Config struct {
	// Enabled short-circuits every decision to accept while frames are
	// still scored and counted, so statistics and logs stay meaningful
	// during bring-up.
	Enabled bool
	// MinQuality rejects frames whose overall blended score falls below it.
	MinQuality float64
	// MinCoverage rejects frames, before blending, when the sensor saw too
	// little of the scene.
	MinCoverage float64
	// MinSmoothness rejects frames, before blending, when local dispersion
	// is too high.
	MinSmoothness float64
	// LogRejected emits one structured record per rejected frame.
	LogRejected bool
	// ValidRange bounds the readings treated as real returns.
	ValidRange DepthRange
}

// DefaultConfig returns the documented defaults: filtering on, thresholds at
// 0.5/0.3/0.4, rejection logging on, any nonzero reading valid.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		MinQuality:    DefaultMinQuality,
		MinCoverage:   DefaultMinCoverage,
		MinSmoothness: DefaultMinSmoothness,
		LogRejected:   true,
	}
}

// Validate reports every violation at once rather than stopping at the
// first. Thresholds must lie in [0,1] and the valid range must not be
// inverted. Out-of-range values are never clamped.
func (c Config) Validate() error {
	var err error
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"minimum quality threshold", c.MinQuality},
		{"minimum coverage", c.MinCoverage},
		{"minimum smoothness", c.MinSmoothness},
	} {
		if th.value < 0 || th.value > 1 {
			err = multierr.Append(err, errors.Errorf("%s must be within [0,1], got %v", th.name, th.value))
		}
	}
	if c.ValidRange.Max != 0 && c.ValidRange.Max < c.ValidRange.Min {
		err = multierr.Append(err, errors.Errorf(
			"valid depth range inverted: min %dmm exceeds max %dmm", c.ValidRange.Min, c.ValidRange.Max))
	}
	return err
}
