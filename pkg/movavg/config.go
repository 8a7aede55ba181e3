package movavg

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/mikesmitty/movavg/pkg/averager"
	"github.com/mikesmitty/movavg/pkg/env"
	"github.com/mikesmitty/movavg/pkg/mqtt"
	"github.com/spf13/viper"
)

const (
	SourceStdin    = "stdin"
	SourceMQTT     = "mqtt"
	SourceSHT4x    = "sht4x"
	SourceMAX31865 = "max31865"
	SourceTSL2591  = "tsl2591"
)

const (
	DefaultWindowDepth     = 16
	DefaultInputType       = "uint16"
	DefaultAccumulatorType = "uint32"
	DefaultPollInterval    = 100 * time.Millisecond
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Debug     bool
	LogFormat string

	WindowDepth int
	Input       averager.Kind
	Accumulator averager.Kind

	Source       string
	Scale        float64
	PollInterval time.Duration
	I2CBus       string
	SPIBus       string
	SHT4xField   env.Field

	MQTTBroker         *url.URL
	MQTTInputTopic     string
	MQTTSampleInterval int
	MQTTSensorType     mqtt.HassSensorType

	WatchdogTimeout time.Duration
	StatsWindow     int
	StatsEvery      int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log-format", "text")
	v.SetDefault("window-depth", DefaultWindowDepth)
	v.SetDefault("input-type", DefaultInputType)
	v.SetDefault("accumulator-type", DefaultAccumulatorType)
	v.SetDefault("source", SourceStdin)
	v.SetDefault("scale", 1.0)
	v.SetDefault("poll-interval", DefaultPollInterval)
	v.SetDefault("sht4x-field", "temperature")
	v.SetDefault("mqtt-sample-interval", 1)
	v.SetDefault("stats-every", 1)
}

// LoadConfig reads and validates the settings held by v.
func LoadConfig(v *viper.Viper) (Config, error) {
	setDefaults(v)

	cfg := Config{
		Debug:              v.GetBool("debug"),
		LogFormat:          v.GetString("log-format"),
		WindowDepth:        v.GetInt("window-depth"),
		Source:             v.GetString("source"),
		Scale:              v.GetFloat64("scale"),
		PollInterval:       v.GetDuration("poll-interval"),
		I2CBus:             v.GetString("i2cbus"),
		SPIBus:             v.GetString("spibus"),
		MQTTInputTopic:     v.GetString("mqtt-input-topic"),
		MQTTSampleInterval: v.GetInt("mqtt-sample-interval"),
		WatchdogTimeout:    v.GetDuration("watchdog-timeout"),
		StatsWindow:        v.GetInt("stats-window"),
		StatsEvery:         v.GetInt("stats-every"),
	}

	var err error
	if cfg.Input, err = averager.ParseKind(v.GetString("input-type")); err != nil {
		return cfg, fmt.Errorf("input-type: %w", err)
	}
	if cfg.Accumulator, err = averager.ParseKind(v.GetString("accumulator-type")); err != nil {
		return cfg, fmt.Errorf("accumulator-type: %w", err)
	}
	if cfg.SHT4xField, err = env.ParseField(v.GetString("sht4x-field")); err != nil {
		return cfg, fmt.Errorf("sht4x-field: %w", err)
	}
	if cfg.MQTTSensorType, err = mqtt.ParseSensorType(v.GetString("mqtt-sensor-type")); err != nil {
		return cfg, fmt.Errorf("mqtt-sensor-type: %w", err)
	}
	if v.GetString("mqtt-sensor-type") == "" {
		cfg.MQTTSensorType = defaultSensorType(cfg)
	}

	if broker := v.GetString("mqtt-broker"); broker != "" {
		if cfg.MQTTBroker, err = url.Parse(broker); err != nil {
			return cfg, fmt.Errorf("mqtt-broker: %w", err)
		}
	}

	switch cfg.LogFormat {
	case "text", "tint":
	default:
		return cfg, fmt.Errorf("%w: log-format must be text or tint, got %q", ErrInvalidConfig, cfg.LogFormat)
	}

	switch cfg.Source {
	case SourceStdin:
	case SourceMQTT:
		if cfg.MQTTBroker == nil || cfg.MQTTInputTopic == "" {
			return cfg, fmt.Errorf("%w: source mqtt needs mqtt-broker and mqtt-input-topic", ErrInvalidConfig)
		}
	case SourceSHT4x, SourceMAX31865, SourceTSL2591:
		if cfg.PollInterval <= 0 {
			return cfg, fmt.Errorf("%w: poll-interval must be positive", ErrInvalidConfig)
		}
	default:
		return cfg, fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, cfg.Source)
	}

	if cfg.Scale <= 0 {
		return cfg, fmt.Errorf("%w: scale must be positive", ErrInvalidConfig)
	}
	if cfg.StatsWindow == 1 {
		return cfg, fmt.Errorf("%w: stats-window needs at least two samples", ErrInvalidConfig)
	}
	return cfg, nil
}

func defaultSensorType(cfg Config) mqtt.HassSensorType {
	switch cfg.Source {
	case SourceSHT4x:
		if cfg.SHT4xField == env.Humidity {
			return mqtt.HassSensorHumidity
		}
		return mqtt.HassSensorTemperature
	case SourceMAX31865:
		return mqtt.HassSensorTemperature
	case SourceTSL2591:
		return mqtt.HassSensorIlluminance
	}
	return mqtt.HassSensorGeneric
}
