// Package swma implements a sliding window moving average over integer
// samples. The window is allocated once at construction and every Add runs in
// constant time without touching the heap.
package swma

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// SlidingWindow averages the most recent windowSize samples of type T. The
// running sum is kept in the wider type TCalc so it can never overflow.
//
// A SlidingWindow is not safe for concurrent use.
type SlidingWindow[T constraints.Integer, TCalc constraints.Integer] struct {
	sum        TCalc
	primed     bool
	head       int
	window     []T
	windowSize int
}

// NewSlidingWindow returns an empty window of depth windowSize. It fails if
// the depth is not positive, if TCalc is not wider than T, or if
// windowSize samples of T could overflow TCalc.
func NewSlidingWindow[T constraints.Integer, TCalc constraints.Integer](windowSize int) (*SlidingWindow[T, TCalc], error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindowDepth, windowSize)
	}

	inBits, calcBits := bitSize[T](), bitSize[TCalc]()
	if calcBits <= inBits {
		return nil, fmt.Errorf("%w: %d-bit accumulator, %d-bit input", ErrAccumulatorTooNarrow, calcBits, inBits)
	}

	n := uint64(windowSize)
	if !fitsProduct(n, maxOf[T](), maxOf[TCalc]()) || !fitsProduct(n, minMagnitude[T](), minMagnitude[TCalc]()) {
		return nil, fmt.Errorf("%w: depth %d, input %s, accumulator %s",
			ErrAccumulatorRangeInsufficient, windowSize, rangeOf[T](), rangeOf[TCalc]())
	}

	return &SlidingWindow[T, TCalc]{
		window:     make([]T, windowSize),
		windowSize: windowSize,
	}, nil
}

// MustNewSlidingWindow is like NewSlidingWindow but panics on error.
func MustNewSlidingWindow[T constraints.Integer, TCalc constraints.Integer](windowSize int) *SlidingWindow[T, TCalc] {
	s, err := NewSlidingWindow[T, TCalc](windowSize)
	if err != nil {
		panic(err)
	}
	return s
}

// Add pushes value into the window, evicting the oldest sample, and returns
// the new average truncated toward zero. The first sample fills the whole
// window, so the first call returns value unchanged.
func (s *SlidingWindow[T, TCalc]) Add(value T) T {
	if !s.primed {
		for i := range s.window {
			s.window[i] = value
		}
		s.sum = TCalc(value) * TCalc(s.windowSize)
		s.primed = true
		return value
	}

	evicted := s.window[s.head]
	s.window[s.head] = value
	s.head++
	if s.head == s.windowSize {
		s.head = 0
	}

	// evicted is one of the summands, so the difference stays in range.
	s.sum = s.sum - TCalc(evicted) + TCalc(value)
	return s.average()
}

func (s *SlidingWindow[T, TCalc]) average() T {
	avg := s.sum / TCalc(s.windowSize)
	out := T(avg)
	if TCalc(out) != avg {
		panic(fmt.Sprintf("swma: average %d does not fit the input type", avg))
	}
	return out
}

// Average returns the current average. ok is false until the first Add.
func (s *SlidingWindow[T, TCalc]) Average() (avg T, ok bool) {
	if !s.primed {
		return 0, false
	}
	return s.average(), true
}

// Sum returns the running sum of the buffered samples. ok is false until the
// first Add.
func (s *SlidingWindow[T, TCalc]) Sum() (sum TCalc, ok bool) {
	return s.sum, s.primed
}

func (s *SlidingWindow[T, TCalc]) Primed() bool {
	return s.primed
}

// Window appends the buffered samples to dst, oldest first.
func (s *SlidingWindow[T, TCalc]) Window(dst []T) []T {
	if !s.primed {
		return dst
	}
	dst = append(dst, s.window[s.head:]...)
	return append(dst, s.window[:s.head]...)
}

func (s *SlidingWindow[T, TCalc]) WindowSize() int {
	return s.windowSize
}
