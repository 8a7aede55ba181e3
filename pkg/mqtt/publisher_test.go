package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/mikesmitty/movavg/pkg/router"
	"github.com/mikesmitty/movavg/pkg/stats"
	"github.com/stretchr/testify/require"
)

func TestPublisherDrainsStatsAfterAverageCloses(t *testing.T) {
	for run := 0; run < 20; run++ {
		in := make(chan int64)
		fan := router.NewFan("average", in)
		statsCh, statsFn := stats.Channel(context.Background(), fan.MustSubscribe("stats"), 2, 1, 1)
		c := testClient()
		publish := c.GetPublisher(nil, fan.MustSubscribe("mqtt"), statsCh, HassSensorGeneric, 1)

		done := make(chan error, 3)
		go func() { done <- fan.Run() }()
		go func() { done <- statsFn() }()
		go func() { done <- publish() }()

		for v := int64(0); v < 50; v++ {
			in <- v
		}
		close(in)

		for i := 0; i < 3; i++ {
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatalf("run %d: pipeline goroutine still blocked after input closed", run)
			}
		}
	}
}
