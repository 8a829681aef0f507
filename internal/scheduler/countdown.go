// Package scheduler provides the countdown that separates policy installation
// from swap execution: the policy is installed now, the swap fires after the
// delay unless the handle is cancelled first.
package scheduler

import (
	"context"
	"time"
)

// Handle controls a pending countdown. Cancelling releases the timer
// deterministically; the fire callback is then never invoked.
type Handle struct {
	cancel context.CancelFunc
	done   chan error
}

// Cancel stops the countdown. Safe to call more than once, and after firing.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done yields the fire callback's result, or the cancellation error if the
// countdown was stopped first.
func (h *Handle) Done() <-chan error {
	return h.done
}

// Start begins a countdown of d. onTick, if non-nil, is called once per
// second with the remaining time. When the countdown elapses, fire runs with
// a context that is still cancellable through the handle.
func Start(ctx context.Context, d time.Duration, onTick func(remaining time.Duration), fire func(ctx context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan error, 1)}

	go func() {
		defer cancel()

		remaining := d
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for remaining > 0 {
			if onTick != nil {
				onTick(remaining)
			}
			select {
			case <-ctx.Done():
				h.done <- ctx.Err()
				return
			case <-ticker.C:
				remaining -= time.Second
			}
		}

		h.done <- fire(ctx)
	}()

	return h
}
