// internal/status/constants.go
package status

// Health codes. Values are stable; they are exported as the table_health metric.

// HealthUnknown represents a table that has not completed a poll yet.
const HealthUnknown uint16 = 0

// HealthOK represents a table whose last poll produced values.
const HealthOK uint16 = 1

// HealthError represents a table whose last poll failed at the device level.
const HealthError uint16 = 2

// HealthStale represents a table whose PLC answered but produced no values.
const HealthStale uint16 = 3

// HealthDisabled represents a table skipped by the scheduler.
const HealthDisabled uint16 = 4

// ErrorCodeGeneric is reported when a failure carries no Modbus exception code.
const ErrorCodeGeneric uint16 = 1

// SecondsInErrorMax caps SecondsInError; the counter never wraps.
const SecondsInErrorMax = 65535

// HealthName returns the lower-case name of a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
