// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package tokenizer

import (
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/rule"
)

// TraceKind identifies a traced engine event.
type TraceKind string

const (
	// TraceTest is reported for every rule tested against the buffer.
	TraceTest TraceKind = "test"
	// TraceFire is reported for every rule that fired, before its handler
	// is invoked.
	TraceFire TraceKind = "fire"
)

// TraceEvent describes a rule evaluation of an engine in debug mode.
type TraceEvent struct {
	Kind     TraceKind
	RuleSet  string
	Rule     string
	Offset   int
	Consumed int
	Index    int
	Matched  bool
}

// Observer receives the notifications of an engine.
type Observer interface {
	// OnData is called with the tokens of rules without handler when the
	// rule set has no default handler either.
	OnData(tok rule.Token)
	// OnEnd is called once, when the engine ended.
	OnEnd()
	// OnTrace is called for every trace event in debug mode.
	OnTrace(ev TraceEvent)
}

// ObserverFuncs adapts functions to the Observer interface. Nil functions are
// skipped.
type ObserverFuncs struct {
	Data  func(tok rule.Token)
	End   func()
	Trace func(ev TraceEvent)
}

func (o ObserverFuncs) OnData(tok rule.Token) {
	if o.Data != nil {
		o.Data(tok)
	}
}

func (o ObserverFuncs) OnEnd() {
	if o.End != nil {
		o.End()
	}
}

func (o ObserverFuncs) OnTrace(ev TraceEvent) {
	if o.Trace != nil {
		o.Trace(ev)
	}
}

// MultiObserver dispatches notifications to all its observers in order.
type MultiObserver []Observer

func (m MultiObserver) OnData(tok rule.Token) {
	for _, o := range m {
		o.OnData(tok)
	}
}

func (m MultiObserver) OnEnd() {
	for _, o := range m {
		o.OnEnd()
	}
}

func (m MultiObserver) OnTrace(ev TraceEvent) {
	for _, o := range m {
		o.OnTrace(ev)
	}
}

// LogObserver logs notifications at debug level.
type LogObserver struct {
	logger logrus.FieldLogger
}

// NewLogObserver returns an observer logging to logger, or to the package
// logger when nil.
func NewLogObserver(logger logrus.FieldLogger) *LogObserver {
	if logger == nil {
		logger = log
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnData(tok rule.Token) {
	o.logger.WithFields(logrus.Fields{
		logfields.Rule:   tok.Type,
		logfields.Index:  tok.Index,
		logfields.Length: tok.Size,
		logfields.Offset: tok.Pos.Offset,
		logfields.Token:  tok.Value,
	}).Debug("Token")
}

func (o *LogObserver) OnEnd() {
	o.logger.Debug("End of stream")
}

func (o *LogObserver) OnTrace(ev TraceEvent) {
	o.logger.WithFields(logrus.Fields{
		logfields.Event:   ev.Kind,
		logfields.RuleSet: ev.RuleSet,
		logfields.Rule:    ev.Rule,
		logfields.Offset:  ev.Offset,
		logfields.Length:  ev.Consumed,
		logfields.Index:   ev.Index,
	}).Debugf("Rule matched: %t", ev.Matched)
}
