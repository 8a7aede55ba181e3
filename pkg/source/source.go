// Package source produces integer sample streams for the averager.
package source

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Scale converts a physical reading to an integer sample, e.g. a scale of 100
// turns 21.347°C into 2135.
func Scale(v, scale float64) int64 {
	if scale == 0 {
		scale = 1
	}
	return int64(math.Round(v * scale))
}

// ReaderChannel emits one sample per line of r. Blank lines and lines
// starting with # are skipped, lines that do not parse are logged and skipped.
func ReaderChannel(ctx context.Context, r io.Reader) (<-chan int64, func() error) {
	c := make(chan int64, 1)
	return c, func() error {
		defer close(c)
		scanner := bufio.NewScanner(r)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			v, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				slog.Warn("skipping unparseable sample", "line", line, "text", text, "error", err, "module", "source")
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case c <- v:
			}
		}
		return scanner.Err()
	}
}
