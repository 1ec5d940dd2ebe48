// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package rule composes matchers into rules: ordered patterns tested left to
// right with a token extraction policy.
package rule

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/matcher"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "rule")

var (
	// ErrMissingIdentity is returned when a rule has neither type nor handler
	ErrMissingIdentity = errors.New("rule requires a type or a handler")
	// ErrInvalidIdentity is returned for identities that are neither a
	// string, an integer nor a handler
	ErrInvalidIdentity = errors.New("rule identity must be a string, an integer or a handler")
)

// Token is the data extracted by a rule that fired.
type Token struct {
	// Value is the token data, empty for quiet rules.
	Value string
	// Index is the alternative matched by the last pattern reporting one,
	// -1 if none.
	Index int
	// Type is the rule type, nil for rules identified by their handler.
	Type any
	// Size is the length of the token data.
	Size int
	// Pos is the position of the token data in the stream.
	Pos lexer.Position
}

// Handler is invoked with the token of the rule it is attached to.
type Handler func(Token)

// Match is the outcome of Test.
type Match struct {
	// Consumed is the number of bytes matched from the offset, -1 if the
	// rule did not match.
	Consumed int
	// Index is the alternative reported by the last pattern with more
	// than one alternative, -1 if none.
	Index int
	// Start and End delimit the token data inside the tested buffer.
	Start, End int
}

// NoMatch is the Match of a rule that did not match.
var NoMatch = Match{Consumed: -1, Index: -1}

// Matched returns true if the rule matched.
func (m Match) Matched() bool {
	return m.Consumed >= 0
}

// Size returns the length of the token data.
func (m Match) Size() int {
	return m.End - m.Start
}

// Tracer is called with the outcome of every test of a traced rule.
type Tracer func(r *Rule, offset int, m Match)

// Rule is an ordered list of matchers with its extraction policy. A rule is
// immutable once created.
type Rule struct {
	opts     Options
	matchers []matcher.Matcher

	typ     any
	handler Handler
	hid     uintptr

	length int
	// emptyToken is set when the extracted token is always empty
	emptyToken bool
	// noToken is set when the token data is never materialized
	noToken bool
	// rest is set when the rule consumes all available data
	rest bool
	// trimHit is set for single firstOf rules, whose token ends at the hit
	trimHit bool

	trace Tracer
}

// New compiles patterns into a rule identified by id, which must be a
// string, an integer or a Handler.
//
// Handler identity is the function code pointer: closures created by the same
// function literal are the same identity.
func New(id any, patterns []matcher.Pattern, opts Options) (*Rule, error) {
	typ, h, err := identify(id)
	if err != nil {
		return nil, err
	}

	r := &Rule{
		opts:    opts,
		typ:     typ,
		handler: h,
		noToken: opts.Quiet || opts.Ignore,
	}
	if h != nil {
		r.hid = reflect.ValueOf(h).Pointer()
	}

	if len(patterns) == 0 {
		r.rest = true
		return r, nil
	}

	mopts := matcher.Options{Loop: opts.loop(), Escape: opts.Escape}
	for i, p := range patterns {
		m, err := matcher.New(p, i, len(patterns), mopts)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %s: pattern %d", r, i)
		}
		if matcher.IsPlaceholder(m) {
			// No first pattern means nothing to trim.
			r.opts.TrimLeft = false
			continue
		}
		r.matchers = append(r.matchers, m)
		if l := m.Length(); l < 0 || r.length < 0 {
			r.length = -1
		} else {
			r.length += l
		}
	}

	if len(patterns) == 1 {
		r.trimHit = r.opts.TrimRight && patterns[0].Kind() == matcher.KindFirstOf
		r.opts.TrimRight = false
	}
	if len(r.matchers) == 0 {
		r.rest = true
	} else {
		r.emptyToken = len(patterns) == 1 && r.opts.TrimLeft && !r.matchers[0].Token()
	}

	log.WithFields(logrus.Fields{
		logfields.Rule:   r,
		logfields.Length: r.length,
	}).Debug("Compiled rule")

	return r, nil
}

// identify validates and normalizes a rule identity.
func identify(id any) (any, Handler, error) {
	switch v := id.(type) {
	case nil:
		return nil, nil, ErrMissingIdentity
	case string:
		if v == "" {
			return nil, nil, ErrMissingIdentity
		}
		return v, nil, nil
	case Handler:
		if v == nil {
			return nil, nil, ErrMissingIdentity
		}
		return nil, v, nil
	case func(Token):
		if v == nil {
			return nil, nil, ErrMissingIdentity
		}
		return nil, Handler(v), nil
	}

	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil, nil
	}
	return nil, nil, errors.Wrapf(ErrInvalidIdentity, "got %T", id)
}

// Is returns true if id identifies r.
func (r *Rule) Is(id any) bool {
	typ, h, err := identify(id)
	if err != nil {
		return false
	}
	if h != nil {
		return r.handler != nil && reflect.ValueOf(h).Pointer() == r.hid
	}
	return r.handler == nil && r.typ == typ
}

// Type returns the rule type, nil for handler rules.
func (r *Rule) Type() any {
	return r.typ
}

// Handler returns the rule handler, nil for typed rules.
func (r *Rule) Handler() Handler {
	return r.handler
}

// Options returns the effective rule options.
func (r *Rule) Options() Options {
	return r.opts
}

// Length returns the longest possible match of the rule, -1 if unbounded.
func (r *Rule) Length() int {
	if r.rest {
		return -1
	}
	return r.length
}

// Traced returns a copy of r reporting every test to t.
func (r *Rule) Traced(t Tracer) *Rule {
	c := *r
	c.trace = t
	return &c
}

func (r *Rule) String() string {
	if r.handler != nil {
		if fn := runtime.FuncForPC(r.hid); fn != nil {
			return fn.Name()
		}
		return "handler"
	}
	return fmt.Sprint(r.typ)
}

// Test matches the rule against data at offset.
func (r *Rule) Test(data []byte, offset int) Match {
	m := r.test(data, offset)
	if r.trace != nil {
		r.trace(r, offset, m)
	}
	return m
}

func (r *Rule) test(data []byte, offset int) Match {
	if offset > len(data) {
		return NoMatch
	}
	if r.rest {
		return Match{Consumed: len(data) - offset, Index: -1, Start: offset, End: len(data)}
	}

	pos, index := offset, -1
	var first, last matcher.Result
	for i, m := range r.matchers {
		res := m.Match(data, pos)
		if !res.Matched() {
			return NoMatch
		}
		if i == 0 {
			first = res
		}
		if res.Index >= 0 {
			index = res.Index
		}
		last = res
		pos += res.Consumed
	}

	match := Match{Consumed: pos - offset, Index: index, Start: offset, End: pos}
	if r.emptyToken {
		match.Start = pos
		return match
	}
	if r.opts.TrimLeft && !r.matchers[0].Token() {
		match.Start += first.Consumed
	}
	if r.opts.TrimRight || r.trimHit {
		match.End -= last.Size
	}
	if match.End < match.Start {
		match.End = match.Start
	}
	return match
}

// Token builds the token of a match of r in data.
func (r *Rule) Token(data []byte, m Match) Token {
	tok := Token{
		Index: m.Index,
		Type:  r.typ,
		Size:  m.Size(),
	}
	if !r.noToken {
		tok.Value = string(data[m.Start:m.End])
	}
	return tok
}
