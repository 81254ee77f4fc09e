// Package metrics exposes pipeline counters for prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Extraction results
const (
	ResultPresent = "present"
	ResultAbsent  = "absent"
	ResultFailed  = "failed"
)

// Metrics holds the pipeline counters. A nil *Metrics records nothing.
type Metrics struct {
	messages    *prometheus.CounterVec
	extractions *prometheus.CounterVec
	appends     *prometheus.CounterVec
}

// New creates the counters and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobfeed_messages_total",
				Help: "Total number of chat messages handed to the pipeline",
			},
			[]string{"phase"},
		),
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobfeed_extractions_total",
				Help: "Total number of model extractions by result",
			},
			[]string{"result"},
		),
		appends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobfeed_sink_appends_total",
				Help: "Total number of row appends by sink and status",
			},
			[]string{"sink", "status"},
		),
	}

	reg.MustRegister(m.messages, m.extractions, m.appends)

	return m
}

// MessageReceived counts a message entering the pipeline in the given phase
func (m *Metrics) MessageReceived(phase string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(phase).Inc()
}

// Extraction counts one extraction outcome
func (m *Metrics) Extraction(result string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(result).Inc()
}

// SinkAppend counts one append attempt against a sink
func (m *Metrics) SinkAppend(sink string, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.appends.WithLabelValues(sink, status).Inc()
}
