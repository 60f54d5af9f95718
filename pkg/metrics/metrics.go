// Package metrics exports bridge call metrics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haivivi/voicebridge/pkg/bridge"
)

const namespace = "voicebridge"

// Metrics is a bridge.Observer that records call metrics into its own
// registry.
type Metrics struct {
	registry *prometheus.Registry

	callsActive   prometheus.Gauge
	callsTotal    *prometheus.CounterVec
	callDuration  prometheus.Histogram
	framesTotal   *prometheus.CounterVec
	chunksTotal   prometheus.Counter
	marksTotal    *prometheus.CounterVec
	itemsTotal    *prometheus.CounterVec
	backendErrors prometheus.Counter
	deltasDropped prometheus.Counter
}

var _ bridge.Observer = (*Metrics)(nil)

// New creates Metrics with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg)
}

// NewWithRegistry creates Metrics registered into reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		callsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Number of calls currently bridged",
		}),
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of finished calls",
		}, []string{"status"}), // status: ok, error
		callDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Histogram of call duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caller_frames_total",
			Help:      "Total caller media frames by outcome",
		}, []string{"outcome"}), // outcome: forwarded, dropped, malformed
		chunksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_chunks_total",
			Help:      "Total model audio chunks sent to callers",
		}),
		marksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marks_total",
			Help:      "Total playback marks",
		}, []string{"kind"}), // kind: sent, acked
		itemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Total model utterances by final state",
		}, []string{"state"}), // state: completed, truncated
		backendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Total error events reported by the voice backend",
		}),
		deltasDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_chunks_dropped_total",
			Help:      "Total model audio chunks dropped before playback",
		}),
	}
	reg.MustRegister(
		m.callsActive,
		m.callsTotal,
		m.callDuration,
		m.framesTotal,
		m.chunksTotal,
		m.marksTotal,
		m.itemsTotal,
		m.backendErrors,
		m.deltasDropped,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) CallStarted(string) {
	m.callsActive.Inc()
}

func (m *Metrics) CallEnded(s bridge.Summary) {
	m.callsActive.Dec()

	status := "ok"
	if s.Err != nil {
		status = "error"
	}
	m.callsTotal.WithLabelValues(status).Inc()
	m.callDuration.Observe(s.Duration().Seconds())

	st := s.Stats
	m.framesTotal.WithLabelValues("forwarded").Add(float64(st.FramesForwarded))
	m.framesTotal.WithLabelValues("dropped").Add(float64(st.FramesDropped))
	m.framesTotal.WithLabelValues("malformed").Add(float64(st.Malformed))
	m.chunksTotal.Add(float64(st.ChunksOut))
	m.marksTotal.WithLabelValues("sent").Add(float64(st.MarksSent))
	m.marksTotal.WithLabelValues("acked").Add(float64(st.MarksAcked))
	m.itemsTotal.WithLabelValues("completed").Add(float64(s.ItemsCompleted))
	m.itemsTotal.WithLabelValues("truncated").Add(float64(s.ItemsTruncated))
	m.backendErrors.Add(float64(st.BackendErrors))
	m.deltasDropped.Add(float64(st.DeltasDropped))
}
