// internal/decode/decode.go
package decode

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNotFinite is returned when a float32 register pair decodes to NaN or Inf.
var ErrNotFinite = errors.New("decode: value is not finite")

// DataType is the declared type of a tag.
type DataType uint8

const (
	Int16 DataType = iota
	Uint16
	Int32
	Uint32
	Float32
	Bool
)

func (d DataType) String() string {
	switch d {
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Bool:
		return "bool"
	default:
		return "int16"
	}
}

// ParseDataType maps the tag's declared type. Unrecognized names are Int16.
func ParseDataType(s string) DataType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean", "bit":
		return Bool
	case "float", "float32", "real":
		return Float32
	case "int32", "dint":
		return Int32
	case "uint32", "dword", "udint":
		return Uint32
	case "uint16", "word", "uint":
		return Uint16
	default:
		return Int16
	}
}

// Words is the register count to request for the type.
func (d DataType) Words() uint16 {
	switch d {
	case Int32, Uint32, Float32:
		return 2
	default:
		return 1
	}
}

// WordOrder is the arrangement of the two registers of a 32-bit value.
type WordOrder uint8

const (
	// LowWordFirst: register 0 carries the low 16 bits.
	LowWordFirst WordOrder = iota
	// HighWordFirst: register 0 carries the high 16 bits.
	HighWordFirst
)

func (o WordOrder) String() string {
	if o == HighWordFirst {
		return "high_word_first"
	}
	return "low_word_first"
}

// ParseWordOrder accepts the plcs.word_order column values. Empty is LowWordFirst.
func ParseWordOrder(s string) (WordOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low_word_first", "low", "cdab", "little":
		return LowWordFirst, nil
	case "high_word_first", "high", "abcd", "big":
		return HighWordFirst, nil
	default:
		return LowWordFirst, fmt.Errorf("decode: unknown word order %q", s)
	}
}

// Registers turns register words into a measurement value.
//
// A bit index overrides the declared type and yields bit N of the first word.
// Zero words decode to 0.
func Registers(words []uint16, dt DataType, bit *uint8, order WordOrder) (float64, error) {
	if len(words) == 0 {
		return 0, nil
	}
	w0 := words[0]

	if bit != nil {
		if *bit > 15 {
			return 0, fmt.Errorf("decode: bit index %d out of range", *bit)
		}
		return float64((w0 >> *bit) & 1), nil
	}

	switch dt {
	case Bool:
		if w0 > 0 {
			return 1, nil
		}
		return 0, nil

	case Float32, Int32, Uint32:
		if len(words) < 2 {
			return float64(w0), nil
		}
		u := compose(words[0], words[1], order)
		switch dt {
		case Int32:
			return float64(int32(u)), nil
		case Uint32:
			return float64(u), nil
		}
		f := float64(math.Float32frombits(u))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, ErrNotFinite
		}
		return math.Round(f*100) / 100, nil

	case Uint16:
		return float64(w0), nil

	default:
		return float64(int16(w0)), nil
	}
}

// Bit converts a coil or discrete input state.
func Bit(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// compose assembles a 32-bit word. With LowWordFirst the 4-byte buffer is
// LE(w0) followed by LE(w1), read back little-endian.
func compose(w0, w1 uint16, order WordOrder) uint32 {
	if order == HighWordFirst {
		return uint32(w0)<<16 | uint32(w1)
	}
	return uint32(w1)<<16 | uint32(w0)
}
