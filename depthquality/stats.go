package depthquality

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// Stats is a point-in-time snapshot of one filter session.
type Stats struct {
	SessionID     string
	StartedAt     time.Time
	Elapsed       time.Duration
	TotalReceived int64
	TotalAccepted int64
	TotalRejected int64
	// RejectionRate is rejected over received, 0 before any frame arrives.
	RejectionRate float64
}

// tracker counts decisions for one session. A single mutex guards the
// counter triple so a snapshot can never tear across fields.
type tracker struct {
	mu       sync.Mutex
	received int64
	accepted int64
	rejected int64

	sessionID string
	startedAt time.Time
	clock     clock.Clock
}

func newTracker(clk clock.Clock) *tracker {
	return &tracker{
		sessionID: uuid.NewString(),
		startedAt: clk.Now(),
		clock:     clk,
	}
}

func (t *tracker) record(accepted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.received++
	if accepted {
		t.accepted++
	} else {
		t.rejected++
	}
}

func (t *tracker) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{
		SessionID:     t.sessionID,
		StartedAt:     t.startedAt,
		Elapsed:       t.clock.Since(t.startedAt),
		TotalReceived: t.received,
		TotalAccepted: t.accepted,
		TotalRejected: t.rejected,
	}
	if t.received > 0 {
		s.RejectionRate = float64(t.rejected) / float64(t.received)
	}
	return s
}
