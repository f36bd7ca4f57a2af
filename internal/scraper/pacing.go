package scraper

import (
	"context"
	"time"
)

// TimerPauser blocks on a timer; it returns early when ctx is done.
type TimerPauser struct{}

// Pause implements Pauser.
func (TimerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
