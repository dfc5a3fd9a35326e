package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	funcName   = "func_name"
	fromStatus = "from_status"
	toStatus   = "to_status"
)

var (
	// Transitions counts committed status transitions.
	Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_transitions_count",
		Help: "Number of committed status transitions",
	}, []string{funcName, fromStatus, toStatus})

	// AdvanceLatency is how long a single advance of a record takes, including the
	// invocation of the registered function.
	AdvanceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_advance_latency_seconds",
		Help:    "Advance latency in seconds",
		Buckets: []float64{0.01, 0.1, 1, 5, 10, 60, 300},
	}, []string{funcName})

	// AdvanceErrors is the number of advances that failed and were captured onto the
	// record's error payload.
	AdvanceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_advance_error_count",
		Help: "Number of failed advances",
	}, []string{funcName})

	// AdvanceNoops is the number of advances skipped because the record was already
	// terminal.
	AdvanceNoops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_advance_noop_count",
		Help: "Number of advances skipped on terminal records",
	}, []string{funcName})

	// SchedulerPending is the size of the last pending scan.
	SchedulerPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "execution_scheduler_pending_records",
		Help: "Number of non-terminal records found by the last scan",
	})
)

func init() {
	prometheus.MustRegister(
		Transitions,
		AdvanceLatency,
		AdvanceErrors,
		AdvanceNoops,
		SchedulerPending,
	)
}

func Reset() {
	Transitions.Reset()
	AdvanceLatency.Reset()
	AdvanceErrors.Reset()
	AdvanceNoops.Reset()
	SchedulerPending.Set(0)
}
