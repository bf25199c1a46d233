package extract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prospect_radar",
		Subsystem: "extraction",
		Name:      "requests_total",
		Help:      "Structured extraction calls by operation and outcome.",
	}, []string{"op", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "prospect_radar",
		Subsystem: "extraction",
		Name:      "request_duration_seconds",
		Help:      "Latency of model provider calls.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"op"})
)

func observe(op string, start time.Time, err error) {
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if e, ok := err.(*Error); ok {
		outcome = e.Kind.String()
	} else if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
}
