package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrStalled = errors.New("no samples received")

// New returns a goroutine body that fails with ErrStalled once interval
// passes without a value on input. Every value restarts the countdown. It
// returns nil when ctx is done or input is closed.
func New[T any](ctx context.Context, interval time.Duration, input <-chan T) func() error {
	return func() error {
		t := time.NewTimer(interval)
		defer t.Stop()
		slog.Debug("watchdog started", "timeout", interval, "module", "watchdog")
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-input:
				if !ok {
					return nil
				}
				// Reset discards a stale expiry since Go 1.23.
				t.Reset(interval)
			case <-t.C:
				slog.Error("watchdog timeout, stopping", "timeout", interval, "module", "watchdog")
				return fmt.Errorf("watchdog: %w for %s", ErrStalled, interval)
			}
		}
	}
}
