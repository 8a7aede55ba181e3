package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tsl2591 "github.com/JenswBE/golang-tsl2591"
)

// TSL2591Channel emits raw infrared counts, which fit a uint16 input.
func TSL2591Channel(ctx context.Context, dev *tsl2591.TSL2591, interval time.Duration) (<-chan int64, func() error) {
	c := make(chan int64, 1)
	return c, func() error {
		defer close(c)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				ir, err := dev.Infrared()
				if err != nil {
					return fmt.Errorf("tsl2591: %w", err)
				}
				slog.Debug("publishing reading", "ir", ir, "module", "tsl2591")
				if !send(ctx, c, int64(ir)) {
					return nil
				}
			}
		}
	}
}
