package db

import (
	"context"
	"fmt"
	"time"
)

const (
	readyInitialDelay = 50 * time.Millisecond
	readyMaxDelay     = time.Second
)

// WaitReady pings until it succeeds or timeout elapses, doubling the delay
// between attempts up to one second. The last ping error is kept in the result.
func WaitReady(ctx context.Context, timeout time.Duration, what string, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := readyInitialDelay
	var last error
	for {
		if last = p.Ping(ctx); last == nil {
			return nil
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("timeout waiting for %s: %w (last error: %v)", what, ctx.Err(), last)
		case <-t.C:
		}
		delay = min(delay*2, readyMaxDelay)
	}
}
