package mqtt

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikesmitty/movavg/pkg/stats"
)

type Client struct {
	client      paho.Client
	clientID    string
	topicPrefix string
	qos         byte
	retained    bool
	sampleRate  int
	hassSensors map[string]HassSensor
	window      *Window
	mu          sync.Mutex
	publishing  atomic.Bool
}

func NewClient(broker *url.URL, sampleRate int) *Client {
	c := &Client{}

	var urls []*url.URL
	urls = append(urls, broker)

	hostname, _ := os.Hostname()
	hostname = strings.Split(hostname, ".")[0]
	clientID := hostname
	if clientID == "" {
		now := time.Now().UnixNano()
		sum := md5.Sum([]byte(strconv.FormatInt(now, 10)))
		clientID = hex.EncodeToString(sum[:])
	}

	c.qos = 1
	c.topicPrefix = "movavg/" + clientID
	c.clientID = clientID
	c.hassSensors = make(map[string]HassSensor)
	c.sampleRate = sampleRate
	c.publishing.Store(true)

	slog.Info("connecting to mqtt", "url", broker, "clientid", clientID, "module", "mqtt")
	c.client = paho.NewClient(&paho.ClientOptions{
		Servers:        urls,
		ClientID:       clientID,
		ConnectRetry:   true,
		ConnectTimeout: 30 * time.Second,
	})

	return c
}

func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connection failed", "error", token.Error(), "module", "mqtt")
		return token.Error()
	}
	return nil
}

func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	if token := c.client.Subscribe(topic, c.qos, handler); token.Wait() && token.Error() != nil {
		slog.Error("mqtt subscription failed", "topic", topic, "error", token.Error(), "module", "mqtt")
		return token.Error()
	}
	return nil
}

// SetPublishing pauses or resumes the sensor publisher.
func (c *Client) SetPublishing(on bool) {
	c.publishing.Store(on)
}

func (c *Client) Publishing() bool {
	return c.publishing.Load()
}

// GetPublisher publishes raw samples, averages and window statistics as Home
// Assistant sensors, one message per sampleRate readings. Values are divided
// by scale before publishing. It returns once all three channels have closed,
// so upstream fans and the stats reporter never block on it.
func (c *Client) GetPublisher(rawChan, avgChan <-chan int64, statsChan <-chan stats.Summary, sensorType HassSensorType, scale float64) func() error {
	if scale == 0 {
		scale = 1
	}
	rawSensor := c.RegisterHassSensor(c.NewHassSensor("Raw", sensorType))
	avgSensor := c.RegisterHassSensor(c.NewHassSensor("Moving Average", sensorType))
	stdDevSensor := c.RegisterHassSensor(c.NewHassSensor("Window StdDev", HassSensorGeneric))
	slopeSensor := c.RegisterHassSensor(c.NewHassSensor("Window Trend", HassSensorGeneric))

	rawSample := NewSample(c.sampleRate)
	avgSample := NewSample(c.sampleRate)

	return func() error {
		for rawChan != nil || avgChan != nil || statsChan != nil {
			select {
			case raw, ok := <-rawChan:
				if !ok {
					rawChan = nil
					continue
				}
				if !rawSample.Ready() || !c.Publishing() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "raw", "value", raw, "module", "mqtt")
				c.HassPublishSensor(rawSensor, formatScaled(raw, scale))
			case avg, ok := <-avgChan:
				if !ok {
					avgChan = nil
					continue
				}
				if !avgSample.Ready() || !c.Publishing() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "average", "value", avg, "module", "mqtt")
				c.HassPublishSensor(avgSensor, formatScaled(avg, scale))
			case s, ok := <-statsChan:
				if !ok {
					statsChan = nil
					continue
				}
				if !c.Publishing() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "stats", "value", s, "module", "mqtt")
				c.HassPublishSensor(stdDevSensor, strconv.FormatFloat(s.StdDev, 'f', 4, 64))
				c.HassPublishSensor(slopeSensor, strconv.FormatFloat(s.Slope, 'f', 4, 64))
			}
		}
		return nil
	}
}

func (c *Client) Publish(topic string, msg string) {
	t := c.client.Publish(topic, c.qos, c.retained, msg)
	go func() {
		_ = t.WaitTimeout(5 * time.Second)
		if t.Error() != nil {
			slog.Error("mqtt message publish failed", "topic", topic, "error", t.Error(), "module", "mqtt")
		}
	}()
}

func formatScaled(v int64, scale float64) string {
	if scale == 1 {
		return strconv.FormatInt(v, 10)
	}
	return strconv.FormatFloat(float64(v)/scale, 'f', -1, 64)
}
