package averager

import (
	"testing"

	"github.com/mikesmitty/movavg/pkg/swma"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"uint8":   Uint8,
		"u16":     Uint16,
		" INT32 ": Int32,
		"i64":     Int64,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("float32")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew(t *testing.T) {
	a, err := New(Uint16, Uint32, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, a.WindowSize())
	assert.Equal(t, Uint16, a.Input())
	assert.Equal(t, Uint32, a.Accumulator())

	for _, tc := range []struct {
		in, acc Kind
		n       int
		err     error
	}{
		{Uint8, Uint16, 0, swma.ErrInvalidWindowDepth},
		{Uint16, Int16, 1, swma.ErrAccumulatorTooNarrow},
		{Uint64, Uint64, 1, swma.ErrAccumulatorTooNarrow},
		{Int64, Int64, 1, swma.ErrAccumulatorTooNarrow},
		{Uint8, Uint16, 512, swma.ErrAccumulatorRangeInsufficient},
		{Int16, Uint32, 1, swma.ErrAccumulatorRangeInsufficient},
		{Kind("float64"), Uint32, 1, ErrUnknownKind},
		{Uint8, Kind("big"), 1, ErrUnknownKind},
	} {
		_, err := New(tc.in, tc.acc, tc.n)
		assert.ErrorIs(t, err, tc.err, "%s/%s depth %d", tc.in, tc.acc, tc.n)
	}
}

func TestObserve(t *testing.T) {
	a, err := New(Int8, Int16, 2)
	require.NoError(t, err)

	got, err := a.Observe(-5)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), got)

	got, err = a.Observe(-10)
	require.NoError(t, err)
	assert.Equal(t, int64(-7), got)

	_, err = a.Observe(128)
	assert.ErrorIs(t, err, ErrSampleOutOfRange)
	_, err = a.Observe(-129)
	assert.ErrorIs(t, err, ErrSampleOutOfRange)

	// Rejected samples do not enter the window.
	got, err = a.Observe(3)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), got)
}

func TestObserveUnsignedRejectsNegative(t *testing.T) {
	a, err := New(Uint32, Uint64, 8)
	require.NoError(t, err)
	_, err = a.Observe(-1)
	assert.ErrorIs(t, err, ErrSampleOutOfRange)
	_, err = a.Observe(1 << 32)
	assert.ErrorIs(t, err, ErrSampleOutOfRange)

	got, err := a.Observe(1<<32 - 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<32-1), got)
}

func TestObserveRejectsNegativeForUint64(t *testing.T) {
	// No accumulator kind is wide enough for a uint64 input, so the engine is
	// left out; a rejected sample never reaches it.
	a := &typed[uint64, uint64]{input: Uint64, acc: Uint64}
	for _, sample := range []int64{-1, -1 << 63} {
		_, err := a.Observe(sample)
		assert.ErrorIs(t, err, ErrSampleOutOfRange, "sample %d", sample)
	}
}
