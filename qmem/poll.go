package qmem

import (
	"context"
	"fmt"
	"time"
)

// AwaitJob drives an asynchronous job to a terminal state, checking status
// every interval and giving up after timeout. The returned state is the last
// one observed; callers decide how to treat ERROR and CANCELLED.
//
// A timeout resolves to ErrPollTimeout, distinct from a backend-reported
// failure. Context cancellation aborts the wait with ctx.Err(). The sleep
// between polls blocks only the calling goroutine, so concurrent items poll
// independently.
func AwaitJob(ctx context.Context, job Job, interval, timeout time.Duration) (JobState, error) {
	start := time.Now()

	for {
		state, err := job.Status(ctx)
		if err != nil {
			return state, fmt.Errorf("qmem: job %s status check: %w", job.ID(), err)
		}
		if state.Terminal() {
			return state, nil
		}
		if elapsed := time.Since(start); elapsed > timeout {
			return state, fmt.Errorf("%w: job %s still %s after %s", ErrPollTimeout, job.ID(), state, elapsed.Round(time.Millisecond))
		}

		// The wait starts after the status check returns, so a slow check
		// never shortens the gap to the next poll.
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return state, ctx.Err()
		case <-timer.C:
		}
	}
}
