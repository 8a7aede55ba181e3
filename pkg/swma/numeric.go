package swma

import (
	"fmt"
	"math/bits"
	"unsafe"

	"golang.org/x/exp/constraints"
)

func bitSize[T constraints.Integer]() int {
	var z T
	return int(unsafe.Sizeof(z)) * 8
}

func isSigned[T constraints.Integer]() bool {
	var z T
	z--
	return z < 0
}

// maxOf returns the largest value representable by T.
func maxOf[T constraints.Integer]() uint64 {
	n := bitSize[T]()
	if isSigned[T]() {
		n--
	}
	return ^uint64(0) >> (64 - n)
}

// minMagnitude returns |min(T)|, which is zero for unsigned types.
func minMagnitude[T constraints.Integer]() uint64 {
	if !isSigned[T]() {
		return 0
	}
	return 1 << (bitSize[T]() - 1)
}

// fitsProduct reports whether n*v <= limit without overflowing uint64.
func fitsProduct(n, v, limit uint64) bool {
	hi, lo := bits.Mul64(n, v)
	return hi == 0 && lo <= limit
}

func rangeOf[T constraints.Integer]() string {
	if m := minMagnitude[T](); m != 0 {
		return fmt.Sprintf("[-%d, %d]", m, maxOf[T]())
	}
	return fmt.Sprintf("[0, %d]", maxOf[T]())
}
