// internal/address/rules.go
package address

import "strconv"

// rule maps one letter prefix to a region.
// oneBased literals are decremented (floor 0) before block is added.
type rule struct {
	region   Region
	oneBased bool
	block    int64
}

type ruleTable struct {
	prefixes map[string]rule
	// modicon enables bare numeric literals (4xxxx, 3xxxx, ...).
	modicon bool
}

// Schneider literals are already zero-based.
var schneiderRules = ruleTable{
	prefixes: map[string]rule{
		"MW": {region: HoldingRegister},
		"R":  {region: HoldingRegister},
		"IW": {region: InputRegister},
		"AI": {region: InputRegister},
		"M":  {region: Coil},
		"Q":  {region: Coil},
		"I":  {region: DiscreteInput},
	},
}

// GE Fanuc literals are one-based. The %M/%T/%G/%S families are exposed as
// discrete inputs, with the system bit blocks stacked after %S.
var geFanucRules = ruleTable{
	prefixes: map[string]rule{
		"R":  {region: HoldingRegister, oneBased: true},
		"MW": {region: HoldingRegister, oneBased: true},
		"W":  {region: HoldingRegister, oneBased: true},
		"AI": {region: InputRegister, oneBased: true},
		"I":  {region: DiscreteInput, oneBased: true},
		"Q":  {region: Coil, oneBased: true},
		"M":  {region: DiscreteInput, oneBased: true},
		"T":  {region: DiscreteInput, oneBased: true},
		"G":  {region: DiscreteInput, oneBased: true},
		"S":  {region: DiscreteInput, oneBased: true},
		"SA": {region: DiscreteInput, oneBased: true, block: 128},
		"SB": {region: DiscreteInput, oneBased: true, block: 256},
		"SC": {region: DiscreteInput, oneBased: true, block: 384},
	},
}

var genericRules = ruleTable{
	prefixes: map[string]rule{
		"MW": {region: HoldingRegister, oneBased: true},
		"MD": {region: HoldingRegister, oneBased: true},
		"MF": {region: HoldingRegister, oneBased: true},
		"ML": {region: HoldingRegister, oneBased: true},
		"QW": {region: HoldingRegister, oneBased: true},
		"QD": {region: HoldingRegister, oneBased: true},
		"R":  {region: HoldingRegister, oneBased: true},
		"AQ": {region: HoldingRegister, oneBased: true},
		"IW": {region: InputRegister, oneBased: true},
		"ID": {region: InputRegister, oneBased: true},
		"AI": {region: InputRegister, oneBased: true},
		"Q":  {region: Coil, oneBased: true},
		"M":  {region: Coil, oneBased: true},
		"I":  {region: DiscreteInput, oneBased: true},
		"S":  {region: DiscreteInput, oneBased: true},
	},
	modicon: true,
}

func rulesFor(m Manufacturer) ruleTable {
	switch m {
	case Schneider:
		return schneiderRules
	case GEFanuc:
		return geFanucRules
	default:
		return genericRules
	}
}

// match returns the region and zero-based offset for prefix+digits.
// Modicon literals below their base come back negative; Resolve clamps them.
func (t ruleTable) match(prefix, digits string) (Region, int64, bool) {
	if prefix == "" {
		if !t.modicon {
			return 0, 0, false
		}
		return modicon(digits)
	}

	r, ok := t.prefixes[prefix]
	if !ok {
		return 0, 0, false
	}

	var n int64
	if digits != "" {
		v, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, 0, false
		}
		n = v
	}

	if r.oneBased {
		n--
		if n < 0 {
			n = 0
		}
	}
	return r.region, n + r.block, true
}

// modicon handles bare numeric literals. Five- and six-digit literals carry
// the region in their leading digit; shorter ones are raw holding register
// offsets.
func modicon(digits string) (Region, int64, bool) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, false
	}

	if len(digits) < 5 || len(digits) > 6 {
		return HoldingRegister, n, true
	}

	// 5 digits: 40001 -> 4*10^4 + 1, 6 digits: 400001 -> 4*10^5 + 1.
	scale := int64(10000)
	if len(digits) == 6 {
		scale = 100000
	}

	switch digits[0] {
	case '4':
		return HoldingRegister, n - (4*scale + 1), true
	case '3':
		return InputRegister, n - (3*scale + 1), true
	case '1':
		return DiscreteInput, n - (1*scale + 1), true
	case '0':
		return Coil, n - 1, true
	default:
		return HoldingRegister, n, true
	}
}
