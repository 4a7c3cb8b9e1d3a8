package provider

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelSuccess = "success"
	labelError   = "error"
	labelTimeout = "timeout"
)

// Metrics holds the provider client's request counters.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	const (
		namespace = "tenantedge"
		subsystem = "provider"
	)

	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Count of calls to the deployment provider API",
		}, []string{"op", "result"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Histogram of deployment provider API call latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 9),
		}, []string{"op"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.RequestDuration,
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := labelSuccess
	if err != nil {
		result = labelError
		if errors.Is(err, ErrTimeout) {
			result = labelTimeout
		}
	}
	m.Requests.WithLabelValues(op, result).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
