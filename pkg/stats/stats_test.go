package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	s := NewStats(4)
	for _, v := range []float64{100, 1, 2, 3, 4} {
		s.Add(v)
	}
	require.True(t, s.Full())

	sum := s.Summary()
	assert.InDelta(t, 2.5, sum.Mean, 1e-9)
	assert.InDelta(t, 1.0, sum.Slope, 1e-9)
	// Sample standard deviation of 1..4.
	assert.InDelta(t, 1.2909944, sum.StdDev, 1e-6)

	alpha, beta := s.LinearRegression()
	assert.InDelta(t, 0.0, alpha, 1e-9)
	assert.InDelta(t, 1.0, beta, 1e-9)
}

func TestStatsFull(t *testing.T) {
	s := NewStats(3)
	s.Add(1)
	s.Add(1)
	assert.False(t, s.Full())
	s.Add(1)
	assert.True(t, s.Full())
	assert.Zero(t, s.StdDev())
}

func TestChannel(t *testing.T) {
	in := make(chan int64)
	out, run := Channel(context.Background(), in, 3, 2, 10)
	done := make(chan error, 1)
	go func() { done <- run() }()

	var got []Summary
	collected := make(chan struct{})
	go func() {
		for s := range out {
			got = append(got, s)
		}
		close(collected)
	}()

	for _, v := range []int64{10, 20, 30, 40, 50, 60} {
		in <- v
	}
	close(in)
	require.NoError(t, <-done)
	<-collected

	// Full after the third value; every second summary from there.
	require.Len(t, got, 2)
	assert.InDelta(t, 3.0, got[0].Mean, 1e-9)
	assert.InDelta(t, 5.0, got[1].Mean, 1e-9)
	assert.InDelta(t, 1.0, got[1].Slope, 1e-9)
}

func TestChannelCancelledWithoutReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int64, 8)
	for v := int64(0); v < 8; v++ {
		in <- v
	}
	_, run := Channel(ctx, in, 2, 1, 1)
	done := make(chan error, 1)
	go func() { done <- run() }()

	// Nobody reads the output, so the reporter parks on its second summary.
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stats reporter did not return after cancel")
	}
}
