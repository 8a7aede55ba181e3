package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikesmitty/movavg/pkg/env"
	"github.com/mikesmitty/sht4x"
	"periph.io/x/conn/v3/physic"
)

func SHT4xChannel(ctx context.Context, dev *sht4x.Dev, interval time.Duration, field env.Field, scale float64) (<-chan int64, func() error) {
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
					return fmt.Errorf("sht4x: %w", err)
				}
				en := env.New(e.Temperature.Celsius(), float64(e.Humidity)/float64(physic.PercentRH))
				v := Scale(en.Get(field), scale)
				slog.Debug("publishing reading", "temp", en.Temperature, "humidity", en.Humidity, "field", field, "sample", v, "module", "sht4x")
				if !send(ctx, c, v) {
					return nil
				}
			}
		}
	}
}

func send(ctx context.Context, c chan<- int64, v int64) bool {
	select {
	case <-ctx.Done():
		return false
	case c <- v:
		return true
	}
}
