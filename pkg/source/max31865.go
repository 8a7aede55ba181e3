package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikesmitty/max31865"
	"periph.io/x/conn/v3/physic"
)

func MAX31865Channel(ctx context.Context, dev *max31865.Dev, interval time.Duration, scale float64) (<-chan int64, func() error) {
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
				var e physic.Env
				if err := dev.Sense(&e); err != nil {
					return fmt.Errorf("max31865: %w", err)
				}
				v := Scale(e.Temperature.Celsius(), scale)
				slog.Debug("publishing reading", "value", e.Temperature.Celsius(), "sample", v, "module", "max31865")
				if !send(ctx, c, v) {
					return nil
				}
			}
		}
	}
}
