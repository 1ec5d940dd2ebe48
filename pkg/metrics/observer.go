// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package metrics

import (
	"fmt"

	"github.com/cilium/streamtok/pkg/rule"
	"github.com/cilium/streamtok/pkg/tokenizer"
)

// Observer is a tokenizer.Observer accounting engine notifications in the
// package metrics.
type Observer struct{}

var _ tokenizer.Observer = Observer{}

// typeLabel returns the label value of a token type. Tokens of handler rules
// have no type.
func typeLabel(typ any) string {
	if typ == nil {
		return ""
	}
	return fmt.Sprint(typ)
}

func (Observer) OnData(tok rule.Token) {
	l := typeLabel(tok.Type)
	TokensTotal.WithLabelValues(l).Inc()
	TokenBytesTotal.WithLabelValues(l).Add(float64(tok.Size))
}

func (Observer) OnEnd() {
	StreamsEnded.Inc()
}

func (Observer) OnTrace(ev tokenizer.TraceEvent) {
	outcome := LabelValueOutcomeNoMatch
	if ev.Matched {
		outcome = LabelValueOutcomeMatch
	}
	TraceEvents.WithLabelValues(string(ev.Kind), outcome).Inc()
}
