package ingest

import "github.com/prometheus/client_golang/prometheus"

var EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "acterstore",
	Subsystem: "ingest",
	Name:      "events_total",
}, []string{"outcome"})

var ExecutedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "acterstore",
	Subsystem: "ingest",
	Name:      "executed_total",
}, []string{"kind"})

var StoreFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "acterstore",
	Subsystem: "ingest",
	Name:      "store_failures_total",
})

var ExecuteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "acterstore",
	Subsystem: "ingest",
	Name:      "execute_duration_seconds",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
}, []string{"kind"})

// Outcome label values for EventsTotal.
const (
	outcomeDecoded  = "decoded"
	outcomeRejected = "rejected"
	outcomeRedacted = "redacted"
)

// Collectors returns every ingest metric for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{EventsTotal, ExecutedTotal, StoreFailures, ExecuteDuration}
}
