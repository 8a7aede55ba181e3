package swma

import "errors"

var (
	ErrInvalidWindowDepth           = errors.New("window depth must be non-zero")
	ErrAccumulatorTooNarrow         = errors.New("accumulator type must be wider than input type")
	ErrAccumulatorRangeInsufficient = errors.New("window depth times input-type maximum must fit the accumulator type")
)
