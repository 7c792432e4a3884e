package round

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sleep blocks for d on clock, returning early with ctx.Err() on cancellation.
func Sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Countdown waits for seconds whole seconds, calling tick with the number of
// seconds left after each one.
func Countdown(ctx context.Context, clock clockwork.Clock, seconds int, tick func(remaining int)) error {
	for remaining := seconds; remaining > 0; remaining-- {
		if err := Sleep(ctx, clock, time.Second); err != nil {
			return err
		}
		if tick != nil {
			tick(remaining - 1)
		}
	}
	return nil
}
