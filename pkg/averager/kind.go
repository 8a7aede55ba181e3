package averager

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("unknown integer type")

// Kind names one of the fixed-width Go integer types.
type Kind string

const (
	Int8   Kind = "int8"
	Int16  Kind = "int16"
	Int32  Kind = "int32"
	Int64  Kind = "int64"
	Uint8  Kind = "uint8"
	Uint16 Kind = "uint16"
	Uint32 Kind = "uint32"
	Uint64 Kind = "uint64"
)

var kinds = []Kind{Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "i8":
		s = "int8"
	case "i16":
		s = "int16"
	case "i32":
		s = "int32"
	case "i64":
		s = "int64"
	case "u8":
		s = "uint8"
	case "u16":
		s = "uint16"
	case "u32":
		s = "uint32"
	case "u64":
		s = "uint64"
	}
	for _, k := range kinds {
		if Kind(s) == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	return string(k)
}
