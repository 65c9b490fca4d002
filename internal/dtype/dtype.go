// Package dtype describes the fixed-width numeric element types supported
// by hsf datasets.
package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies a fixed-width numeric element type. The zero value is
// invalid so that an unset kind is caught early.
type Kind uint8

const (
	Invalid Kind = iota
	Float64
	Float32
	Int64
	Int32
	Int16
	Int8
	Uint64
	Uint32
	Uint16
	Uint8
)

var tokens = map[Kind]string{
	Float64: "float64",
	Float32: "float32",
	Int64:   "int64",
	Int32:   "int32",
	Int16:   "int16",
	Int8:    "int8",
	Uint64:  "uint64",
	Uint32:  "uint32",
	Uint16:  "uint16",
	Uint8:   "uint8",
}

var sizes = map[Kind]int64{
	Float64: 8,
	Float32: 4,
	Int64:   8,
	Int32:   4,
	Int16:   2,
	Int8:    1,
	Uint64:  8,
	Uint32:  4,
	Uint16:  2,
	Uint8:   1,
}

// Parse resolves a dtype token such as "float64" or "uint16".
func Parse(token string) (Kind, error) {
	for k, t := range tokens {
		if t == token {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("unrecognized dtype %q", token)
}

// String returns the canonical token for the kind.
func (k Kind) String() string {
	if t, ok := tokens[k]; ok {
		return t
	}
	return fmt.Sprintf("dtype(%d)", uint8(k))
}

// Size returns the element size in bytes.
func (k Kind) Size() int64 {
	return sizes[k]
}

// Valid reports whether the kind names a supported element type.
func (k Kind) Valid() bool {
	_, ok := sizes[k]
	return ok
}

// PutScalar encodes a scalar value into buf using the kind's width and
// little-endian byte order. buf must be at least Size() bytes. Values are
// truncated toward zero for integer kinds; this matches how fill values
// behave in the container format.
func (k Kind) PutScalar(buf []byte, v float64) {
	switch k {
	case Float64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	case Float32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	case Int64:
		binary.LittleEndian.PutUint64(buf, uint64(int64(v)))
	case Int32:
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	case Int16:
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
	case Int8:
		buf[0] = uint8(int8(v))
	case Uint64:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	case Uint32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case Uint16:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case Uint8:
		buf[0] = uint8(v)
	}
}

// FillPattern returns n elements of the kind, each encoding the scalar v.
func (k Kind) FillPattern(v float64, n int64) []byte {
	size := k.Size()
	buf := make([]byte, size*n)
	if v == 0 {
		return buf
	}
	k.PutScalar(buf, v)
	for i := size; i < int64(len(buf)); i *= 2 {
		copy(buf[i:], buf[:i])
	}
	return buf
}
