package mqtt

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

func parseSample(payload []byte) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(payload)), 10, 64)
}

// SampleChannel streams integer payloads received on topic. Payloads that do
// not parse are logged and dropped, as are samples arriving while the
// consumer is behind. The subscription ends with ctx.
func (c *Client) SampleChannel(ctx context.Context, topic string) (<-chan int64, func() error) {
	ch := make(chan int64, 16)
	var mu sync.Mutex
	closed := false

	handler := func(_ paho.Client, msg paho.Message) {
		v, err := parseSample(msg.Payload())
		if err != nil {
			slog.Warn("skipping unparseable sample", "topic", msg.Topic(), "payload", string(msg.Payload()), "module", "mqtt")
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- v:
		default:
			slog.Warn("sample channel full, dropping sample", "topic", msg.Topic(), "sample", v, "module", "mqtt")
		}
	}

	return ch, func() error {
		defer func() {
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		}()
		slog.Info("subscribing to sample topic", "topic", topic, "module", "mqtt")
		if err := c.Subscribe(topic, handler); err != nil {
			return err
		}
		<-ctx.Done()
		if token := c.client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
			slog.Error("mqtt unsubscribe failed", "topic", topic, "error", token.Error(), "module", "mqtt")
		}
		return nil
	}
}
