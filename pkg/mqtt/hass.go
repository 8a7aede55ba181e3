package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	HassSensorGeneric HassSensorType = iota
	HassSensorIlluminance
	HassSensorTemperature
	HassSensorHumidity
)

const hassStatusTopic = "homeassistant/status"

var ErrUnknownSensorType = errors.New("unknown sensor type")

type HassSensorType int

// sensorClass is what Home Assistant needs to render a reading of one type.
type sensorClass struct {
	name        string
	deviceClass string
	unit        string
}

var sensorClasses = map[HassSensorType]sensorClass{
	HassSensorGeneric:     {name: "generic"},
	HassSensorIlluminance: {name: "illuminance", deviceClass: "illuminance", unit: "lx"},
	HassSensorTemperature: {name: "temperature", deviceClass: "temperature", unit: "°C"},
	HassSensorHumidity:    {name: "humidity", deviceClass: "humidity", unit: "%"},
}

func (t HassSensorType) String() string {
	return sensorClasses[t].name
}

func ParseSensorType(s string) (HassSensorType, error) {
	s = strings.ToLower(s)
	if s == "" {
		return HassSensorGeneric, nil
	}
	for t, class := range sensorClasses {
		if class.name == s {
			return t, nil
		}
	}
	return HassSensorGeneric, fmt.Errorf("%w: %q", ErrUnknownSensorType, s)
}

// Window describes the averaging window behind the published values. It is
// sent to Home Assistant as the attributes of every sensor.
type Window struct {
	Depth       int     `json:"window_depth"`
	Input       string  `json:"input_type"`
	Accumulator string  `json:"accumulator_type"`
	Scale       float64 `json:"scale"`
}

// model names the device after its window, e.g. "movavg uint16/uint32 x16".
func (w Window) model() string {
	if w.Depth == 0 {
		return "movavg"
	}
	return fmt.Sprintf("movavg %s/%s x%d", w.Input, w.Accumulator, w.Depth)
}

type HassSensor struct {
	configTopic         string
	Name                string     `json:"name"`
	UniqueID            string     `json:"unique_id"`
	Device              HassDevice `json:"device,omitempty"`
	DeviceClass         string     `json:"device_class,omitempty"`
	StateClass          string     `json:"state_class,omitempty"`
	StateTopic          string     `json:"state_topic"`
	JSONAttributesTopic string     `json:"json_attributes_topic,omitempty"`
	UnitOfMeasurement   string     `json:"unit_of_measurement,omitempty"`
}

type HassDevice struct {
	Name        string   `json:"name,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// SetWindow records the averaging window. Sensors created afterwards carry it
// in their device model and attributes topic.
func (c *Client) SetWindow(w Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = &w
}

func (c *Client) attributesTopic() string {
	return c.topicPrefix + "/window"
}

// HomeAssistant sends discovery for every registered sensor, and sends it
// again each time Home Assistant reports itself online.
func (c *Client) HomeAssistant() error {
	c.announce()
	return c.Subscribe(hassStatusTopic, func(_ paho.Client, msg paho.Message) {
		status := string(msg.Payload())
		slog.Info("homeassistant status", "status", status, "module", "mqtt")
		if status == "online" {
			c.announce()
		}
	})
}

func (c *Client) announce() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.window != nil {
		attrs, err := json.Marshal(c.window)
		if err != nil {
			slog.Error("encoding window attributes", "error", err, "module", "mqtt")
		} else {
			c.Publish(c.attributesTopic(), string(attrs))
		}
	}
	slog.Info("announcing homeassistant sensors", "count", len(c.hassSensors), "module", "mqtt")
	for _, sensor := range c.hassSensors {
		payload, err := json.Marshal(sensor)
		if err != nil {
			slog.Error("encoding discovery payload", "sensor", sensor.UniqueID, "error", err, "module", "mqtt")
			continue
		}
		c.Publish(sensor.configTopic, string(payload))
	}
}

// NewHassSensor describes one measurement of this device. Home Assistant
// derives the device class and unit from sensorType.
func (c *Client) NewHassSensor(name string, sensorType HassSensorType) HassSensor {
	c.mu.Lock()
	defer c.mu.Unlock()
	class := sensorClasses[sensorType]
	sensor := HassSensor{
		Name: name,
		Device: HassDevice{
			Name:  cases.Title(language.English).String(c.clientID),
			Model: "movavg",
		},
		DeviceClass:       class.deviceClass,
		StateClass:        "measurement",
		StateTopic:        c.topicPrefix + "/sensor/" + slugify(name),
		UnitOfMeasurement: class.unit,
	}
	if c.window != nil {
		sensor.Device.Model = c.window.model()
		sensor.JSONAttributesTopic = c.attributesTopic()
	}
	return sensor
}

// RegisterHassSensor fills in the identifiers Home Assistant keys on and
// returns the sensor's unique id.
func (c *Client) RegisterHassSensor(sensor HassSensor) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	device := slugify(sensor.Device.Name)
	if sensor.UniqueID == "" {
		sensor.UniqueID = device + "_" + slugify(sensor.Name)
	}
	if len(sensor.Device.Identifiers) == 0 {
		sensor.Device.Identifiers = []string{device}
	}
	sensor.configTopic = fmt.Sprintf("homeassistant/sensor/%s/config", sensor.UniqueID)
	c.hassSensors[sensor.UniqueID] = sensor
	return sensor.UniqueID
}

// HassPublishSensor sends state for a registered sensor.
func (c *Client) HassPublishSensor(uniqueID, state string) error {
	c.mu.Lock()
	sensor, ok := c.hassSensors[uniqueID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("mqtt: no sensor registered as %q", uniqueID)
	}
	c.Publish(sensor.StateTopic, state)
	return nil
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}
