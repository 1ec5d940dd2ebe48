// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package metrics holds prometheus metrics objects and related utility functions. It
// does not abstract away the prometheus client but the caller rarely needs to
// refer to prometheus directly.
package metrics

// Adding a metric
// - Add a metric object of the appropriate type as an exported variable
// - Register the new object in the init function

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/cilium/streamtok/pkg/defaults"
	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "metrics")

var (
	registry = prometheus.NewPedanticRegistry()

	// Namespace is used to scope metrics from streamtok. It is prepended to
	// metric names and separated with a '_'
	Namespace = defaults.MetricsNamespace

	// Tokenizer is the subsystem to scope metrics related to tokenizer
	// engines. It is prepended to metric names and separated with a '_'.
	Tokenizer = "tokenizer"

	// Labels

	// LabelType is the type of the rule that produced a token
	LabelType = "type"

	// LabelTraceKind is the kind of a trace event
	LabelTraceKind = "kind"

	// LabelOutcome is the outcome of a traced rule test
	LabelOutcome = "outcome"

	// LabelValueOutcomeMatch is used when a traced rule matched
	LabelValueOutcomeMatch = "match"

	// LabelValueOutcomeNoMatch is used when a traced rule did not match
	LabelValueOutcomeNoMatch = "nomatch"

	// LabelLevel is the log level of a counted log message
	LabelLevel = "level"

	// LabelSubsystem is the subsystem of a counted log message
	LabelSubsystem = "subsystem"

	// Tokenizer

	// TokensTotal is the number of tokens emitted to observers, by rule type
	TokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: Tokenizer,
		Name:      "tokens_total",
		Help:      "Number of tokens emitted, tagged by rule type",
	}, []string{LabelType})

	// TokenBytesTotal is the size of the tokens emitted to observers, by
	// rule type
	TokenBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: Tokenizer,
		Name:      "token_bytes_total",
		Help:      "Size in bytes of the tokens emitted, tagged by rule type",
	}, []string{LabelType})

	// StreamsEnded is the number of streams that reached their end
	StreamsEnded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: Tokenizer,
		Name:      "streams_ended_total",
		Help:      "Number of tokenized streams that ended",
	})

	// TraceEvents is the number of trace events of engines in debug mode
	TraceEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: Tokenizer,
		Name:      "trace_events_total",
		Help:      "Number of rule evaluations traced, tagged by kind and outcome",
	}, []string{LabelTraceKind, LabelOutcome})

	// ErrorsWarnings is the number of error and warning log messages
	ErrorsWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "errors_warnings_total",
		Help:      "Number of total errors and warnings logged, tagged by level and subsystem",
	}, []string{LabelLevel, LabelSubsystem})
)

func init() {
	MustRegister(TokensTotal)
	MustRegister(TokenBytesTotal)
	MustRegister(StreamsEnded)
	MustRegister(TraceEvents)
	MustRegister(ErrorsWarnings)
}

// MustRegister adds the collector to the registry, exposing this metric to
// prometheus scrapes.
// It will panic on error.
func MustRegister(c prometheus.Collector) {
	registry.MustRegister(c)
}

// Enable begins serving prometheus metrics on the address passed in. Addresses
// of the form ":8080" will bind the port on all interfaces.
func Enable(addr string) error {
	go func() {
		// The Handler function provides a default handler to expose metrics
		// via an HTTP server. "/metrics" is the usual endpoint for that.
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		log.WithError(http.ListenAndServe(addr, mux)).Warnf("Cannot start metrics server on %s", addr)
	}()

	return nil
}

// Dump writes all registered metrics to w in the prometheus text format.
func Dump(w io.Writer) error {
	families, err := registry.Gather()
	if err != nil {
		return errors.Wrap(err, "unable to gather metrics")
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrapf(err, "unable to encode metric %s", mf.GetName())
		}
	}
	return nil
}

// GetCounterValue returns the current value
// stored for the counter
func GetCounterValue(m prometheus.Counter) float64 {
	var pm dto.Metric
	err := m.Write(&pm)
	if err == nil {
		return *pm.Counter.Value
	}
	return 0
}
