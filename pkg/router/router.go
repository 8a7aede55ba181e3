package router

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrAlreadySubscribed = errors.New("client already subscribed")
	ErrNotSubscribed     = errors.New("client not subscribed")
)

// Fan copies every value from one input channel to each subscriber. A slow
// subscriber holds up all of them.
type Fan[T any] struct {
	debug   bool
	name    string
	mu      sync.Mutex
	input   <-chan T
	outputs map[string]chan T
	closed  bool
}

func NewFan[T any](name string, input <-chan T) *Fan[T] {
	return &Fan[T]{
		name:    name,
		input:   input,
		outputs: make(map[string]chan T),
	}
}

func (f *Fan[T]) SetDebug(debug bool) {
	f.debug = debug
}

func (f *Fan[T]) Subscribe(client string) (<-chan T, error) {
	if f.debug {
		slog.Debug("subscribing to fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.outputs[client]; ok {
		return nil, fmt.Errorf("%s: %w: %s", f.name, ErrAlreadySubscribed, client)
	}
	c := make(chan T, 1)
	if f.closed {
		close(c)
		return c, nil
	}
	f.outputs[client] = c
	return c, nil
}

// MustSubscribe is Subscribe for wiring code where a duplicate name is a bug.
func (f *Fan[T]) MustSubscribe(client string) <-chan T {
	c, err := f.Subscribe(client)
	if err != nil {
		panic(err)
	}
	return c
}

func (f *Fan[T]) Unsubscribe(client string) error {
	if f.debug {
		slog.Debug("unsubscribing from fan", "fan", f.name, "client", client)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.outputs[client]
	if !ok {
		return fmt.Errorf("%s: %w: %s", f.name, ErrNotSubscribed, client)
	}
	close(c)
	delete(f.outputs, client)
	return nil
}

// Run forwards values until the input closes, then closes every subscriber.
func (f *Fan[T]) Run() error {
	for v := range f.input {
		if f.debug {
			slog.Debug("fan received value", "fan", f.name, "value", v)
		}
		f.mu.Lock()
		for k, ch := range f.outputs {
			ch <- v
			if f.debug {
				slog.Debug("fan sent value", "subscriber", k, "fan", f.name, "value", v)
			}
		}
		f.mu.Unlock()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for k, ch := range f.outputs {
		close(ch)
		delete(f.outputs, k)
	}
	f.closed = true
	return nil
}
