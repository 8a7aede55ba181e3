package movavg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/mikesmitty/movavg/pkg/averager"
)

// Smooth runs every sample from in through avg. Samples the averager rejects
// are logged and dropped; any other error stops the stage.
func Smooth(ctx context.Context, avg averager.Averager, in <-chan int64) (<-chan int64, func() error) {
	c := make(chan int64, 1)
	return c, func() error {
		defer close(c)
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-in:
				if !ok {
					return nil
				}
				out, err := avg.Observe(v)
				if errors.Is(err, averager.ErrSampleOutOfRange) {
					slog.Warn("dropping sample", "sample", v, "error", err, "module", "movavg")
					continue
				}
				if err != nil {
					return fmt.Errorf("movavg: %w", err)
				}
				slog.Debug("moving average", "sample", v, "average", out, "module", "movavg")
				select {
				case <-ctx.Done():
					return nil
				case c <- out:
				}
			}
		}
	}
}

// Printer writes one average per line to w, divided by scale.
func Printer(w io.Writer, in <-chan int64, scale float64) func() error {
	return func() error {
		for v := range in {
			if _, err := fmt.Fprintln(w, formatAverage(v, scale)); err != nil {
				return fmt.Errorf("printer: %w", err)
			}
		}
		return nil
	}
}

func formatAverage(v int64, scale float64) string {
	if scale == 1 || scale == 0 {
		return strconv.FormatInt(v, 10)
	}
	return strconv.FormatFloat(float64(v)/scale, 'f', -1, 64)
}
