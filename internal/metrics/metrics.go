package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	uploads         *prometheus.CounterVec
	analyses        *prometheus.CounterVec
	analysisLatency *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

func New(namespace string) *Metrics {
	fieldKeys := []string{"provider", "success", "code"}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "total",
			Help:      "Number of uploads received.",
		}, []string{"result"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "total",
			Help:      "Number of analyses run against the model service.",
		}, fieldKeys),
		analysisLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Duration of analyses in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, fieldKeys),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, []string{"method", "path", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads,
		m.analyses,
		m.analysisLatency,
		m.requests,
		m.requestLatency,
	)
	return m
}

// UploadReceived counts an upload attempt, result is "accepted" or the error code.
func (m *Metrics) UploadReceived(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

func (m *Metrics) AnalysisFinished(provider string, success bool, code string, took time.Duration) {
	if m == nil {
		return
	}
	lvs := []string{provider, fmt.Sprint(success), code}
	m.analyses.WithLabelValues(lvs...).Inc()
	m.analysisLatency.WithLabelValues(lvs...).Observe(took.Seconds())
}

func (m *Metrics) RequestServed(method, path string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, fmt.Sprint(status)).Inc()
	m.requestLatency.WithLabelValues(method, path).Observe(took.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
