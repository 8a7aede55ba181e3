package stats

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// Stats keeps the last size values and describes their spread and trend.
type Stats struct {
	count  int
	size   int
	values []float64
	x      []float64
}

type Summary struct {
	Mean   float64
	StdDev float64
	// Slope is the least-squares trend per sample.
	Slope float64
}

func NewStats(size int) *Stats {
	if size < 2 {
		size = 2
	}
	x := make([]float64, size)
	for i := range x {
		x[i] = float64(i + 1)
	}
	return &Stats{
		size:   size,
		values: make([]float64, size),
		x:      x,
	}
}

func (p *Stats) Add(value float64) {
	copy(p.values, p.values[1:])
	p.values[p.size-1] = value
	if p.count < p.size {
		p.count++
	}
}

// Full reports whether size values have been added.
func (p *Stats) Full() bool {
	return p.count == p.size
}

func (p *Stats) LinearRegression() (alpha, beta float64) {
	return stat.LinearRegression(p.x, p.values, nil, false)
}

func (p *Stats) Mean() float64 {
	return stat.Mean(p.values, nil)
}

func (p *Stats) StdDev() float64 {
	return stat.StdDev(p.values, nil)
}

func (p *Stats) Summary() Summary {
	_, m := p.LinearRegression()
	return Summary{
		Mean:   p.Mean(),
		StdDev: p.StdDev(),
		Slope:  m,
	}
}

// Channel summarizes in every `every` values once size values have arrived.
// Values are divided by scale first. A pending summary is abandoned when ctx
// is done.
func Channel(ctx context.Context, in <-chan int64, size, every int, scale float64) (<-chan Summary, func() error) {
	c := make(chan Summary, 1)
	if every < 1 {
		every = 1
	}
	if scale == 0 {
		scale = 1
	}
	return c, func() error {
		defer close(c)
		s := NewStats(size)
		n := 0
		for v := range in {
			s.Add(float64(v) / scale)
			if !s.Full() {
				continue
			}
			n++
			if n%every != 0 {
				continue
			}
			sum := s.Summary()
			slog.Debug("window stats", "mean", sum.Mean, "stddev", sum.StdDev, "slope", sum.Slope, "module", "stats")
			select {
			case c <- sum:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	}
}
