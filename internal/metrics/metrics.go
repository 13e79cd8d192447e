// Package metrics exposes Prometheus counters for streams and model listings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeDone    = "done"    // [DONE] received
	OutcomeEOF     = "eof"     // stream closed without [DONE]
	OutcomeFailed  = "failed"  // request or API error before streaming
	OutcomeAborted = "aborted" // read error mid-stream
	OutcomeSuccess = "success"
)

// Metrics groups the client counters. A nil *Metrics records nothing.
type Metrics struct {
	streams      *prometheus.CounterVec
	fragments    *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	sinkFailures prometheus.Counter
	modelLists   *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		streams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatstream_streams_total",
			Help: "Chat completion streams by provider and outcome.",
		}, []string{"provider", "outcome"}),
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatstream_fragments_total",
			Help: "Content fragments received from providers.",
		}, []string{"provider"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatstream_skipped_events_total",
			Help: "SSE payloads skipped because they could not be parsed as a delta.",
		}, []string{"provider"}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatstream_sink_failures_total",
			Help: "Fragments the delta sink failed to deliver.",
		}),
		modelLists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatstream_model_list_total",
			Help: "Model list requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
	reg.MustRegister(m.streams, m.fragments, m.skipped, m.sinkFailures, m.modelLists)
	return m
}

// ObserveStream records a finished stream.
func (m *Metrics) ObserveStream(provider, outcome string, fragments, skipped int) {
	if m == nil {
		return
	}
	m.streams.WithLabelValues(provider, outcome).Inc()
	if fragments > 0 {
		m.fragments.WithLabelValues(provider).Add(float64(fragments))
	}
	if skipped > 0 {
		m.skipped.WithLabelValues(provider).Add(float64(skipped))
	}
}

// SinkFailure records one undelivered fragment.
func (m *Metrics) SinkFailure() {
	if m == nil {
		return
	}
	m.sinkFailures.Inc()
}

// ObserveModelList records a model list request.
func (m *Metrics) ObserveModelList(provider, outcome string) {
	if m == nil {
		return
	}
	m.modelLists.WithLabelValues(provider, outcome).Inc()
}
