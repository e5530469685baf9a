package enrich

import (
	"context"
	"time"
)

// Pacer spaces out consecutive provider calls. It exists so the rate-limit
// policy is injectable and testable instead of an inline sleep.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelayPacer waits a constant interval. The provider's free-tier quota
// tolerates roughly one call per second.
type FixedDelayPacer struct {
	Delay time.Duration
}

func NewFixedDelayPacer(delay time.Duration) *FixedDelayPacer {
	if delay <= 0 {
		delay = time.Second
	}
	return &FixedDelayPacer{Delay: delay}
}

func (p *FixedDelayPacer) Wait(ctx context.Context) error {
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NopPacer waits for nothing. Test use only.
type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }
