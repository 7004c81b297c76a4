// internal/address/manufacturer.go
package address

import "strings"

// Manufacturer selects the vendor addressing convention.
type Manufacturer uint8

const (
	Generic Manufacturer = iota
	Schneider
	GEFanuc
)

func (m Manufacturer) String() string {
	switch m {
	case Schneider:
		return "Schneider"
	case GEFanuc:
		return "GE Fanuc"
	default:
		return "Generic"
	}
}

// ParseManufacturer maps the free-text vendor column to a Manufacturer.
// Unknown or empty values are Generic.
func ParseManufacturer(s string) Manufacturer {
	k := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))

	switch {
	case strings.HasPrefix(k, "schneider"):
		return Schneider
	case k == "gefanuc" || k == "ge" || k == "fanuc" || strings.HasPrefix(k, "gefanuc"):
		return GEFanuc
	default:
		return Generic
	}
}
