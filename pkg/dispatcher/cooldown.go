package dispatcher

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCooldown is the pause after every successful vote or reply.
const DefaultCooldown = 3 * time.Second

// Cooldown is the fixed-delay backpressure applied after each state-changing
// gateway call. A zero Duration disables the wait.
type Cooldown struct {
	Duration time.Duration
	Clock    clockwork.Clock
}

// NewCooldown returns a Cooldown on the real clock.
func NewCooldown(d time.Duration) Cooldown {
	return Cooldown{Duration: d, Clock: clockwork.NewRealClock()}
}

// Wait blocks for the cooldown duration. It only returns early when ctx is done.
func (c Cooldown) Wait(ctx context.Context) error {
	if c.Duration <= 0 {
		return nil
	}
	clock := c.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	select {
	case <-clock.After(c.Duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
