package envrandomizer

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "simgym"
	subsystem = "envrandomizer"
)

// Metrics of all Randomizers in the process, labelled by the source of
// their sessions
var (
	sessionsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_created_total",
			Help:      "Simulator sessions created by environment randomizers",
		},
		[]string{"source"},
	)
	sessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_closed_total",
			Help:      "Simulator sessions closed by environment randomizers",
		},
		[]string{"source"},
	)
	rollouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rollouts_total",
			Help:      "Rollouts started in randomized environments",
		},
		[]string{"source"},
	)
	resetFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reset_failures_total",
			Help:      "Failed resets of randomized environments",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(sessionsCreated)
	prometheus.MustRegister(sessionsClosed)
	prometheus.MustRegister(rollouts)
	prometheus.MustRegister(resetFailures)
}
