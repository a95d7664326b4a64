package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CouchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "objectdb", Subsystem: "couch", Name: "requests_total", Help: "Number of CouchDB round trips by operation and status code."},
		[]string{"operation", "code"},
	)
	CouchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "objectdb", Subsystem: "couch", Name: "request_duration_seconds", Help: "Duration of CouchDB round trips by operation.", Buckets: prometheus.DefBuckets},
		[]string{"operation"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(CouchRequests)
	reg.MustRegister(CouchRequestDuration)
}
