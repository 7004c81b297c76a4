// internal/address/address.go
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnresolved is returned for any address that matches no rule.
var ErrUnresolved = errors.New("address: unresolved")

// Region is a Modbus memory region.
type Region uint8

const (
	Coil            Region = iota + 1 // 0x, FC 1
	DiscreteInput                     // 1x, FC 2
	InputRegister                     // 3x, FC 4
	HoldingRegister                   // 4x, FC 3
)

func (r Region) String() string {
	switch r {
	case Coil:
		return "coil"
	case DiscreteInput:
		return "discrete_input"
	case InputRegister:
		return "input_register"
	case HoldingRegister:
		return "holding_register"
	default:
		return "unknown"
	}
}

// IsRegister reports whether the region holds 16-bit words.
func (r Region) IsRegister() bool {
	return r == InputRegister || r == HoldingRegister
}

// FunctionCode returns the Modbus read function for the region.
func (r Region) FunctionCode() uint8 {
	switch r {
	case Coil:
		return 1
	case DiscreteInput:
		return 2
	case HoldingRegister:
		return 3
	case InputRegister:
		return 4
	default:
		return 0
	}
}

// Resolved is a normalized, zero-based location on the device.
// Bit is set only when the source address carried a valid .N suffix.
type Resolved struct {
	Region Region
	Offset uint16
	Bit    *uint8
}

func (r Resolved) String() string {
	if r.Bit != nil {
		return fmt.Sprintf("%s:%d.%d", r.Region, r.Offset, *r.Bit)
	}
	return fmt.Sprintf("%s:%d", r.Region, r.Offset)
}

// Resolve translates an operator-authored tag address into a device location.
//
// Vendor rules are tried first; anything they do not claim falls through to
// the generic rules. addressOffset is applied to register regions only.
func Resolve(raw string, m Manufacturer, addressOffset int) (Resolved, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "%")

	var bit *uint8
	if i := strings.LastIndex(s, "."); i >= 0 {
		if n, err := strconv.ParseUint(s[i+1:], 10, 8); err == nil && n <= 15 {
			b := uint8(n)
			bit = &b
		}
		s = s[:i]
	}

	if s == "" {
		return Resolved{}, fmt.Errorf("%w: %q is empty", ErrUnresolved, raw)
	}

	prefix, digits, ok := split(s)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %q is not <letters><digits>", ErrUnresolved, raw)
	}

	region, offset, matched := rulesFor(m).match(prefix, digits)
	if !matched && m != Generic {
		region, offset, matched = genericRules.match(prefix, digits)
	}
	if !matched {
		return Resolved{}, fmt.Errorf("%w: %q (manufacturer=%s)", ErrUnresolved, raw, m)
	}

	if offset < 0 {
		offset = 0
	}
	if region.IsRegister() {
		offset += int64(addressOffset)
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 0xFFFF {
		return Resolved{}, fmt.Errorf("%w: %q offset %d exceeds 65535", ErrUnresolved, raw, offset)
	}

	return Resolved{Region: region, Offset: uint16(offset), Bit: bit}, nil
}

// split separates the letter prefix from the decimal digits.
// Either part may be empty, but not both, and nothing may follow the digits.
func split(s string) (prefix, digits string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	prefix, digits = s[:i], s[i:]
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return "", "", false
		}
	}
	return prefix, digits, prefix != "" || digits != ""
}
