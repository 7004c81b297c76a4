// internal/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modbus_collector"

// Poll outcomes.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

// Tag failure reasons.
const (
	ReasonUnresolved = "unresolved"
	ReasonRead       = "read"
	ReasonDecode     = "decode"
)

// Metrics groups every collector metric. A nil *Metrics is valid and records
// nothing, so components and tests can run without a registry.
type Metrics struct {
	pollOutcomes   *prometheus.CounterVec
	measurements   *prometheus.CounterVec
	tagFailures    *prometheus.CounterVec
	reconnects     *prometheus.CounterVec
	writeFailures  *prometheus.CounterVec
	tableHealth    *prometheus.GaugeVec
	generation     prometheus.Gauge
	runningPollers prometheus.Gauge
}

// New creates the metric set and registers it on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pollOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Poll iterations per monitoring table, labeled by outcome (ok, partial, empty, failed)",
		}, []string{"table_id", "outcome"}),
		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "measurements_written_total",
			Help:      "Measurements committed to storage per monitoring table",
		}, []string{"table_id"}),
		tagFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "tag_failures_total",
			Help:      "Per-tag failures, labeled by reason (unresolved, read, decode)",
		}, []string{"table_id", "reason"}),
		reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "reconnects_total",
			Help:      "Connection-level failures that forced a reconnect, per PLC",
		}, []string{"plc_id"}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "write_failures_total",
			Help:      "Storage writes that failed after local retry, labeled by kind (measurements, system_log)",
		}, []string{"kind"}),
		tableHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "status",
			Name:      "table_health",
			Help:      "Health code per monitoring table (0 unknown, 1 ok, 2 error, 3 stale, 4 disabled)",
		}, []string{"table_id"}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "generation",
			Help:      "Sequence number of the running generation",
		}),
		runningPollers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "running_pollers",
			Help:      "Number of table pollers currently running",
		}),
	}

	reg.MustRegister(
		m.pollOutcomes,
		m.measurements,
		m.tagFailures,
		m.reconnects,
		m.writeFailures,
		m.tableHealth,
		m.generation,
		m.runningPollers,
	)
	return m
}

func id(v int) string { return strconv.Itoa(v) }

func (m *Metrics) PollOutcome(tableID int, outcome string) {
	if m == nil {
		return
	}
	m.pollOutcomes.WithLabelValues(id(tableID), outcome).Inc()
}

func (m *Metrics) MeasurementsWritten(tableID, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.measurements.WithLabelValues(id(tableID)).Add(float64(n))
}

func (m *Metrics) TagFailure(tableID int, reason string) {
	if m == nil {
		return
	}
	m.tagFailures.WithLabelValues(id(tableID), reason).Inc()
}

func (m *Metrics) Reconnect(plcID int) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(id(plcID)).Inc()
}

func (m *Metrics) WriteFailure(kind string) {
	if m == nil {
		return
	}
	m.writeFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) TableHealth(tableID int, code uint16) {
	if m == nil {
		return
	}
	m.tableHealth.WithLabelValues(id(tableID)).Set(float64(code))
}

// ForgetTable drops the per-table health series when a table leaves the fleet.
func (m *Metrics) ForgetTable(tableID int) {
	if m == nil {
		return
	}
	m.tableHealth.DeleteLabelValues(id(tableID))
}

func (m *Metrics) Generation(seq uint64) {
	if m == nil {
		return
	}
	m.generation.Set(float64(seq))
}

func (m *Metrics) PollerStarted() {
	if m == nil {
		return
	}
	m.runningPollers.Inc()
}

func (m *Metrics) PollerStopped() {
	if m == nil {
		return
	}
	m.runningPollers.Dec()
}
