package decode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func bitp(v uint8) *uint8 { return &v }

// encode32 builds the register image of a 32-bit value in the given order.
func encode32(u uint32, order WordOrder) []uint16 {
	hi, lo := uint16(u>>16), uint16(u)
	if order == HighWordFirst {
		return []uint16{hi, lo}
	}
	return []uint16{lo, hi}
}

func TestParseDataType(t *testing.T) {
	tests := map[string]DataType{
		"bool":    Bool,
		"Boolean": Bool,
		"float":   Float32,
		"REAL":    Float32,
		"float32": Float32,
		"int32":   Int32,
		"dint":    Int32,
		"uint32":  Uint32,
		"dword":   Uint32,
		"udint":   Uint32,
		"uint16":  Uint16,
		"word":    Uint16,
		"uint":    Uint16,
		"int16":   Int16,
		"int":     Int16,
		"":        Int16,
		"string":  Int16,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseDataType(in), in)
	}
}

func TestDataType_Words(t *testing.T) {
	require.Equal(t, uint16(2), Float32.Words())
	require.Equal(t, uint16(2), Int32.Words())
	require.Equal(t, uint16(2), Uint32.Words())
	require.Equal(t, uint16(1), Int16.Words())
	require.Equal(t, uint16(1), Uint16.Words())
	require.Equal(t, uint16(1), Bool.Words())
}

func TestRegisters_SixteenBit(t *testing.T) {
	v, err := Registers([]uint16{0xFFFF}, Int16, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, -1.0, v)

	v, err = Registers([]uint16{0xFFFF}, Uint16, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 65535.0, v)

	v, err = Registers([]uint16{0x8000}, ParseDataType("unknown"), nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, -32768.0, v)
}

func TestRegisters_Bool(t *testing.T) {
	v, err := Registers([]uint16{0}, Bool, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 0.0, v)

	v, err = Registers([]uint16{42}, Bool, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)

	require.Equal(t, 1.0, Bit(true))
	require.Equal(t, 0.0, Bit(false))
}

func TestRegisters_BitOverridesType(t *testing.T) {
	word := uint16(1 << 7)
	for _, dt := range []DataType{Int16, Uint16, Float32, Int32, Bool} {
		v, err := Registers([]uint16{word, 0xFFFF}, dt, bitp(7), LowWordFirst)
		require.NoError(t, err)
		require.Equal(t, 1.0, v, dt.String())

		v, err = Registers([]uint16{word, 0xFFFF}, dt, bitp(6), LowWordFirst)
		require.NoError(t, err)
		require.Equal(t, 0.0, v, dt.String())
	}

	_, err := Registers([]uint16{1}, Int16, bitp(16), LowWordFirst)
	require.Error(t, err)
}

func TestRegisters_ZeroWords(t *testing.T) {
	for _, dt := range []DataType{Int16, Uint16, Int32, Uint32, Float32, Bool} {
		v, err := Registers(nil, dt, nil, LowWordFirst)
		require.NoError(t, err)
		require.Equal(t, 0.0, v)
	}
}

func TestRegisters_Float32LowWordFirst(t *testing.T) {
	// 12.5 = 0x41480000: low word 0x0000 first, high word 0x4148 second.
	v, err := Registers([]uint16{0x0000, 0x4148}, Float32, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 12.5, v)
}

func TestRegisters_Float32HighWordFirst(t *testing.T) {
	// Raw capture from a GE controller that needs the swapped order.
	v, err := Registers([]uint16{17190, 55706}, Float32, nil, HighWordFirst)
	require.NoError(t, err)
	require.Equal(t, 166.85, v)
}

func TestRegisters_Float32RoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 3.14159, 166.85, -273.15, 12345.678, 0.005, 99999.99}
	for _, order := range []WordOrder{LowWordFirst, HighWordFirst} {
		for _, want := range values {
			words := encode32(math.Float32bits(float32(want)), order)
			got, err := Registers(words, Float32, nil, order)
			require.NoError(t, err)
			require.InDelta(t, want, got, 0.01, "order=%s value=%v", order, want)
		}
	}
}

func TestRegisters_Float32Rounding(t *testing.T) {
	words := encode32(math.Float32bits(float32(1.23456)), LowWordFirst)
	v, err := Registers(words, Float32, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 1.23, v)
}

func TestRegisters_Float32NotFinite(t *testing.T) {
	words := encode32(math.Float32bits(float32(math.Inf(1))), LowWordFirst)
	_, err := Registers(words, Float32, nil, LowWordFirst)
	require.ErrorIs(t, err, ErrNotFinite)

	words = encode32(0x7FC00000, LowWordFirst) // quiet NaN
	_, err = Registers(words, Float32, nil, LowWordFirst)
	require.ErrorIs(t, err, ErrNotFinite)
}

func TestRegisters_ThirtyTwoBitIntegers(t *testing.T) {
	v, err := Registers(encode32(uint32(0xFFFFFFFE), LowWordFirst), Int32, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, -2.0, v)

	v, err = Registers(encode32(uint32(0xFFFFFFFE), LowWordFirst), Uint32, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 4294967294.0, v)

	v, err = Registers([]uint16{0x0001, 0x0002}, Uint32, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, float64(0x00020001), v)

	v, err = Registers([]uint16{0x0001, 0x0002}, Uint32, nil, HighWordFirst)
	require.NoError(t, err)
	require.Equal(t, float64(0x00010002), v)
}

func TestRegisters_ThirtyTwoBitShortRead(t *testing.T) {
	v, err := Registers([]uint16{7}, Float32, nil, LowWordFirst)
	require.NoError(t, err)
	require.Equal(t, 7.0, v)
}

func TestParseWordOrder(t *testing.T) {
	o, err := ParseWordOrder("")
	require.NoError(t, err)
	require.Equal(t, LowWordFirst, o)

	o, err = ParseWordOrder("HIGH_WORD_FIRST")
	require.NoError(t, err)
	require.Equal(t, HighWordFirst, o)

	_, err = ParseWordOrder("middle")
	require.Error(t, err)
}
