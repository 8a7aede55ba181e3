package swma

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reference recomputes every average from scratch, treating the first sample
// as if it had filled the whole window.
func reference(values []int64, n int) []int64 {
	out := make([]int64, len(values))
	for k := range values {
		var sum int64
		for i := k - n + 1; i <= k; i++ {
			if i < 0 {
				sum += values[0]
			} else {
				sum += values[i]
			}
		}
		out[k] = sum / int64(n)
	}
	return out
}

func TestFirstSampleIsReturned(t *testing.T) {
	for _, n := range []int{1, 2, 7, 128} {
		s := MustNewSlidingWindow[uint8, uint32](n)
		assert.Equal(t, uint8(44), s.Add(44), "depth %d", n)
	}

	s := MustNewSlidingWindow[int16, int32](5)
	assert.Equal(t, int16(-300), s.Add(-300))

	u := MustNewSlidingWindow[uint8, uint16](1)
	assert.Equal(t, uint8(math.MaxUint8), u.Add(math.MaxUint8))
}

func TestTwoSampleMean(t *testing.T) {
	s := MustNewSlidingWindow[uint8, uint16](2)
	assert.Equal(t, uint8(10), s.Add(10))
	assert.Equal(t, uint8(12), s.Add(15))
	assert.Equal(t, uint8(17), s.Add(20))
	assert.Equal(t, uint8(20), s.Add(20))
}

func TestSlidingWindowForgetsOldSamples(t *testing.T) {
	s := MustNewSlidingWindow[uint16, uint32](3)
	s.Add(60000)
	s.Add(0)
	s.Add(0)
	assert.Equal(t, uint16(0), s.Add(0))
	assert.Equal(t, uint16(3), s.Add(9))
}

func TestSignedSamples(t *testing.T) {
	s := MustNewSlidingWindow[int8, int16](2)
	assert.Equal(t, int8(-5), s.Add(-5))
	// Truncation is toward zero.
	assert.Equal(t, int8(-7), s.Add(-10))
	assert.Equal(t, int8(-3), s.Add(3))
	assert.Equal(t, int8(5), s.Add(7))

	sum, ok := s.Sum()
	require.True(t, ok)
	assert.Equal(t, int16(10), sum)
}

func TestLargeDepth(t *testing.T) {
	const n = 128
	s := MustNewSlidingWindow[uint8, uint16](n)
	prefix := []uint8{200, 250, 255, 1, 99}

	var got uint8
	for _, v := range prefix {
		got = s.Add(v)
	}
	// 200 repeated n-len(prefix) times plus the distinct values.
	want := (200*(n-len(prefix)) + 200 + 250 + 255 + 1 + 99) / n
	assert.Equal(t, uint8(want), got)

	// Repeats of the first value push the distinct samples out one by one.
	for i := 0; i < n-1; i++ {
		got = s.Add(200)
	}
	assert.Equal(t, uint8((200*(n-1)+99)/n), got)
	assert.Equal(t, uint8(200), s.Add(200))
}

func TestMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 3, 7, 64} {
		s := MustNewSlidingWindow[int16, int32](n)
		values := make([]int64, 500)
		for i := range values {
			values[i] = int64(rng.Intn(math.MaxUint16+1) + math.MinInt16)
		}
		want := reference(values, n)
		for k, v := range values {
			got := s.Add(int16(v))
			require.Equal(t, int16(want[k]), got, "depth %d, sample %d", n, k)
		}
	}
}

func TestConstructionErrors(t *testing.T) {
	_, err := NewSlidingWindow[uint8, uint16](0)
	assert.ErrorIs(t, err, ErrInvalidWindowDepth)

	_, err = NewSlidingWindow[uint8, uint16](-4)
	assert.ErrorIs(t, err, ErrInvalidWindowDepth)

	_, err = NewSlidingWindow[uint16, uint16](1)
	assert.ErrorIs(t, err, ErrAccumulatorTooNarrow)

	_, err = NewSlidingWindow[uint32, int32](1)
	assert.ErrorIs(t, err, ErrAccumulatorTooNarrow)

	_, err = NewSlidingWindow[uint16, uint8](1)
	assert.ErrorIs(t, err, ErrAccumulatorTooNarrow)

	_, err = NewSlidingWindow[uint8, uint16](512)
	assert.ErrorIs(t, err, ErrAccumulatorRangeInsufficient)

	// 257*255 is exactly 65535.
	_, err = NewSlidingWindow[uint8, uint16](257)
	assert.NoError(t, err)

	_, err = NewSlidingWindow[uint8, uint16](258)
	assert.ErrorIs(t, err, ErrAccumulatorRangeInsufficient)

	// A signed input needs room below zero as well.
	_, err = NewSlidingWindow[int8, uint16](1)
	assert.ErrorIs(t, err, ErrAccumulatorRangeInsufficient)

	_, err = NewSlidingWindow[int8, int16](256)
	assert.NoError(t, err)

	_, err = NewSlidingWindow[int8, int16](257)
	assert.ErrorIs(t, err, ErrAccumulatorRangeInsufficient)

	_, err = NewSlidingWindow[uint32, uint64](1 << 20)
	assert.NoError(t, err)
}

func TestMustNewSlidingWindowPanics(t *testing.T) {
	assert.Panics(t, func() { MustNewSlidingWindow[uint8, uint16](0) })
}

func TestRunningSumAtAccumulatorLimits(t *testing.T) {
	u := MustNewSlidingWindow[uint8, uint16](257)
	u.Add(math.MaxUint8)
	sum, _ := u.Sum()
	assert.Equal(t, uint16(math.MaxUint16), sum)
	for i := 0; i < 1000; i++ {
		v := uint8(math.MaxUint8)
		if i%3 == 0 {
			v = 0
		}
		u.Add(v)
		sum, _ = u.Sum()
		var want uint16
		for _, w := range u.Window(nil) {
			want += uint16(w)
		}
		require.Equal(t, want, sum)
	}

	s := MustNewSlidingWindow[int8, int16](256)
	assert.Equal(t, int8(math.MinInt8), s.Add(math.MinInt8))
	sum16, _ := s.Sum()
	assert.Equal(t, int16(math.MinInt16), sum16)
	assert.Equal(t, int8(math.MinInt8), s.Add(math.MinInt8))
	for i := 0; i < 256; i++ {
		s.Add(math.MaxInt8)
	}
	assert.Equal(t, int8(math.MaxInt8), s.Add(math.MaxInt8))
}

func TestAccessors(t *testing.T) {
	s := MustNewSlidingWindow[uint16, uint32](3)
	assert.Equal(t, 3, s.WindowSize())
	assert.False(t, s.Primed())
	_, ok := s.Average()
	assert.False(t, ok)
	_, ok = s.Sum()
	assert.False(t, ok)
	assert.Empty(t, s.Window(nil))

	s.Add(1)
	assert.True(t, s.Primed())
	assert.Equal(t, []uint16{1, 1, 1}, s.Window(nil))
	s.Add(2)
	assert.Equal(t, []uint16{1, 1, 2}, s.Window(nil))
	s.Add(3)
	assert.Equal(t, []uint16{1, 2, 3}, s.Window(nil))
	s.Add(4)
	assert.Equal(t, []uint16{2, 3, 4}, s.Window(nil))

	avg, ok := s.Average()
	require.True(t, ok)
	assert.Equal(t, uint16(3), avg)
	sum, _ := s.Sum()
	assert.Equal(t, uint32(9), sum)
}

func TestAddDoesNotAllocate(t *testing.T) {
	s := MustNewSlidingWindow[int16, int32](32)
	var v int16
	allocs := testing.AllocsPerRun(1000, func() {
		v += 7
		s.Add(v)
	})
	assert.Zero(t, allocs)

	buf := make([]int16, 0, 32)
	allocs = testing.AllocsPerRun(100, func() {
		buf = s.Window(buf[:0])
	})
	assert.Zero(t, allocs)
}

func TestLimits(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint8), maxOf[uint8]())
	assert.Equal(t, uint64(math.MaxInt8), maxOf[int8]())
	assert.Equal(t, uint64(math.MaxInt64), maxOf[int64]())
	assert.Equal(t, uint64(math.MaxUint64), maxOf[uint64]())
	assert.Equal(t, uint64(0), minMagnitude[uint32]())
	assert.Equal(t, uint64(1<<15), minMagnitude[int16]())
	assert.Equal(t, uint64(1<<63), minMagnitude[int64]())
	assert.True(t, isSigned[int32]())
	assert.False(t, isSigned[uintptr]())
	assert.Equal(t, 16, bitSize[uint16]())
}
