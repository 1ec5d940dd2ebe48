// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/matcher"
	"github.com/cilium/streamtok/pkg/tokenizer"
)

func resetMetrics() {
	TokensTotal.Reset()
	TokenBytesTotal.Reset()
	TraceEvents.Reset()
	ErrorsWarnings.Reset()
}

func TestObserver(t *testing.T) {
	resetMetrics()
	ended := GetCounterValue(StreamsEnded)

	e := tokenizer.New(tokenizer.Config{Name: "test", Observer: Observer{}, Debug: true})
	require.NoError(t, e.AddRule("word", matcher.Literal(""), matcher.Literal(" ")))
	require.NoError(t, e.AddRule(42, matcher.Length(1)))
	require.NoError(t, e.End([]byte("ab cd x")))

	require.Equal(t, float64(2), testutil.ToFloat64(TokensTotal.WithLabelValues("word")))
	require.Equal(t, float64(4), testutil.ToFloat64(TokenBytesTotal.WithLabelValues("word")))
	require.Equal(t, float64(1), testutil.ToFloat64(TokensTotal.WithLabelValues("42")))
	require.Equal(t, ended+1, GetCounterValue(StreamsEnded))

	// 2 words and 1 char fired, the word rule failed once before the char
	require.Equal(t, float64(3), testutil.ToFloat64(TraceEvents.WithLabelValues("fire", LabelValueOutcomeMatch)))
	require.Equal(t, float64(1), testutil.ToFloat64(TraceEvents.WithLabelValues("test", LabelValueOutcomeNoMatch)))
	require.Equal(t, float64(3), testutil.ToFloat64(TraceEvents.WithLabelValues("test", LabelValueOutcomeMatch)))
}

func TestLoggingHook(t *testing.T) {
	resetMetrics()

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.AddHook(NewLoggingHook())

	scoped := logger.WithField(logfields.LogSubsys, "test")
	scoped.Warn("warning")
	scoped.Error("error")
	scoped.Info("info")
	scoped.Error("error")

	require.Equal(t, float64(1), testutil.ToFloat64(ErrorsWarnings.WithLabelValues("warning", "test")))
	require.Equal(t, float64(2), testutil.ToFloat64(ErrorsWarnings.WithLabelValues("error", "test")))

	err := NewLoggingHook().Fire(logrus.NewEntry(logger))
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	resetMetrics()
	Observer{}.OnEnd()

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf))
	require.Contains(t, buf.String(), "streamtok_tokenizer_streams_ended_total")
}
