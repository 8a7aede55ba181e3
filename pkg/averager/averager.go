// Package averager picks a concrete swma.SlidingWindow from integer type
// names known only at runtime.
package averager

import (
	"errors"
	"fmt"

	"github.com/mikesmitty/movavg/pkg/swma"
	"golang.org/x/exp/constraints"
)

var ErrSampleOutOfRange = errors.New("sample out of range for input type")

// Averager is a moving average whose input and accumulator types were chosen
// at runtime. Samples and averages cross the interface as int64.
type Averager interface {
	// Observe feeds one sample and returns the new average. A sample that
	// does not fit the input type is rejected and leaves the window as it was.
	Observe(sample int64) (int64, error)
	WindowSize() int
	Input() Kind
	Accumulator() Kind
}

type typed[T constraints.Integer, TCalc constraints.Integer] struct {
	w     *swma.SlidingWindow[T, TCalc]
	input Kind
	acc   Kind
}

func (a *typed[T, TCalc]) Observe(sample int64) (int64, error) {
	v := T(sample)
	// The sign check catches uint64, where -1 survives the round trip.
	if int64(v) != sample || (v < 0) != (sample < 0) {
		return 0, fmt.Errorf("%w: %d does not fit %s", ErrSampleOutOfRange, sample, a.input)
	}
	return int64(a.w.Add(v)), nil
}

func (a *typed[T, TCalc]) WindowSize() int {
	return a.w.WindowSize()
}

func (a *typed[T, TCalc]) Input() Kind {
	return a.input
}

func (a *typed[T, TCalc]) Accumulator() Kind {
	return a.acc
}

// New returns an Averager of depth windowSize averaging input-typed samples in
// an acc-typed running sum. Construction errors from swma are returned as is.
func New(input, acc Kind, windowSize int) (Averager, error) {
	switch input {
	case Int8:
		return withInput[int8](input, acc, windowSize)
	case Int16:
		return withInput[int16](input, acc, windowSize)
	case Int32:
		return withInput[int32](input, acc, windowSize)
	case Int64:
		return withInput[int64](input, acc, windowSize)
	case Uint8:
		return withInput[uint8](input, acc, windowSize)
	case Uint16:
		return withInput[uint16](input, acc, windowSize)
	case Uint32:
		return withInput[uint32](input, acc, windowSize)
	case Uint64:
		return withInput[uint64](input, acc, windowSize)
	}
	return nil, fmt.Errorf("input: %w: %q", ErrUnknownKind, input)
}

func withInput[T constraints.Integer](input, acc Kind, windowSize int) (Averager, error) {
	switch acc {
	case Int8:
		return build[T, int8](input, acc, windowSize)
	case Int16:
		return build[T, int16](input, acc, windowSize)
	case Int32:
		return build[T, int32](input, acc, windowSize)
	case Int64:
		return build[T, int64](input, acc, windowSize)
	case Uint8:
		return build[T, uint8](input, acc, windowSize)
	case Uint16:
		return build[T, uint16](input, acc, windowSize)
	case Uint32:
		return build[T, uint32](input, acc, windowSize)
	case Uint64:
		return build[T, uint64](input, acc, windowSize)
	}
	return nil, fmt.Errorf("accumulator: %w: %q", ErrUnknownKind, acc)
}

func build[T constraints.Integer, TCalc constraints.Integer](input, acc Kind, windowSize int) (Averager, error) {
	w, err := swma.NewSlidingWindow[T, TCalc](windowSize)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", input, acc, err)
	}
	return &typed[T, TCalc]{w: w, input: input, acc: acc}, nil
}
