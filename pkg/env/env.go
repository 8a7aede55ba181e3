package env

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownField = errors.New("unknown env field")

type Env struct {
	Temperature float64
	Humidity    float64
	Dewpoint    float64
}

// Field selects one reading out of an Env.
type Field int

const (
	Temperature Field = iota
	Humidity
	Dewpoint
)

func New(temp, humidity float64) Env {
	return Env{
		Temperature: temp,
		Humidity:    humidity,
		Dewpoint:    dewpoint(temp, humidity),
	}
}

func (e Env) Get(f Field) float64 {
	switch f {
	case Humidity:
		return e.Humidity
	case Dewpoint:
		return e.Dewpoint
	default:
		return e.Temperature
	}
}

func ParseField(s string) (Field, error) {
	switch strings.ToLower(s) {
	case "temperature", "temp":
		return Temperature, nil
	case "humidity", "rh":
		return Humidity, nil
	case "dewpoint":
		return Dewpoint, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f Field) String() string {
	switch f {
	case Humidity:
		return "humidity"
	case Dewpoint:
		return "dewpoint"
	default:
		return "temperature"
	}
}

// Magnus approximation, rh in percent.
func dewpoint(t, rh float64) float64 {
	g := math.Log(rh/100) + (17.625*t)/(243.04+t)
	return 243.04 * g / (17.625 - g)
}
