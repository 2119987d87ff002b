package depthquality

import (
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
)

// RejectReason says which threshold a rejected frame failed first.
type RejectReason string

// Rejection reasons, in the order the decision cascade checks them.
const (
	RejectNone          RejectReason = ""
	RejectLowCoverage   RejectReason = "low_coverage"
	RejectLowSmoothness RejectReason = "low_smoothness"
	RejectLowOverall    RejectReason = "low_overall"
)

// Decision is the filter's verdict on one frame. The score travels with the
// verdict so callers can report it either way.
type Decision struct {
	Accepted bool
	Score    Score
	Reason   RejectReason
}

// Filter gates depth frames for a reconstruction consumer and keeps
// per-session acceptance statistics. Construct one per session with New.
// Assess and Stats are safe for concurrent use.
type Filter struct {
	conf   Config
	logger logging.Logger
	stats  *tracker
}

// New validates conf and starts a fresh session. The config is copied, so
// mutating the caller's value afterwards does not affect the session.
func New(conf Config, logger logging.Logger) (*Filter, error) {
	return newWithClock(conf, logger, clock.New())
}

func newWithClock(conf Config, logger logging.Logger, clk clock.Clock) (*Filter, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid depth quality config")
	}
	if err := defaultWeights.Validate(); err != nil {
		return nil, err
	}
	return &Filter{conf: conf, logger: logger, stats: newTracker(clk)}, nil
}

// Evaluate scores one frame and renders the verdict without touching the
// session statistics or logs. The only errors are contract violations (nil
// or zero-dimension frames); an ordinary rejection is a Decision, not an
// error.
func (f *Filter) Evaluate(frame Frame) (Decision, error) {
	dm := frame.Depth
	if dm == nil {
		return Decision{}, errors.New("depth frame has no depth map")
	}
	if dm.Width() <= 0 || dm.Height() <= 0 {
		return Decision{}, errors.Errorf(
			"depth frame has degenerate dimensions %dx%d", dm.Width(), dm.Height())
	}
	return f.decide(ScoreFrame(dm, f.conf.ValidRange)), nil
}

// Assess is Evaluate plus accounting: exactly one frame is added to the
// session statistics per successful call, and rejections are logged when
// the session is configured to do so.
func (f *Filter) Assess(frame Frame) (Decision, error) {
	d, err := f.Evaluate(frame)
	if err != nil {
		return Decision{}, err
	}
	f.stats.record(d.Accepted)
	if !d.Accepted && f.conf.LogRejected {
		f.logger.Debugw("rejected low quality depth frame",
			"reason", string(d.Reason),
			"quality", d.Score.Overall,
			"coverage", d.Score.Coverage,
			"smoothness", d.Score.Smoothness,
			"captured_at", frame.CapturedAt,
		)
	}
	return d, nil
}

// decide applies the short-circuit threshold cascade. Coverage outranks
// smoothness, which outranks the blended score, so the reported reason is
// always the most specific explanation available. Scores exactly at a
// threshold pass it.
func (f *Filter) decide(score Score) Decision {
	d := Decision{Score: score}
	switch {
	case !f.conf.Enabled:
		d.Accepted = true
	case score.Coverage < f.conf.MinCoverage:
		d.Reason = RejectLowCoverage
	case score.Smoothness < f.conf.MinSmoothness:
		d.Reason = RejectLowSmoothness
	case score.Overall < f.conf.MinQuality:
		d.Reason = RejectLowOverall
	default:
		d.Accepted = true
	}
	return d
}

// Stats snapshots the session counters. Safe to call while Assess runs;
// counters reset only by starting a new session with New.
func (f *Filter) Stats() Stats { return f.stats.snapshot() }

// Config returns a copy of the session's immutable configuration.
func (f *Filter) Config() Config { return f.conf }

// SessionID identifies this filter session in logs and summaries.
func (f *Filter) SessionID() string { return f.stats.sessionID }
