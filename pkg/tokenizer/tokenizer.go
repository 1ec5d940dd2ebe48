// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package tokenizer implements a streaming tokenizer: data written to an
// Engine is matched against the rules of its active rule set and split into
// tokens handed to rule handlers.
//
// Handlers run synchronously within Write and End and may call any Engine
// method. Calls made from a handler are folded into the running drain loop.
package tokenizer

import (
	"slices"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/defaults"
	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/rule"
	"github.com/cilium/streamtok/pkg/ruleset"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "tokenizer")

var (
	// ErrEnded is returned by operations not allowed once the engine ended
	ErrEnded = errors.New("tokenizer ended")
	// ErrSeekOutOfRange is returned when seeking before the buffer start
	ErrSeekOutOfRange = errors.New("seek before start of buffer")
	// ErrUnknownRuleSet is returned for rule set names never saved
	ErrUnknownRuleSet = errors.New("unknown rule set")
	// ErrMissingName is returned when a rule set name is required
	ErrMissingName = errors.New("rule set name required")
)

// Config is the configuration of an Engine.
type Config struct {
	// Name identifies the engine in logs and token positions.
	Name string
	// Debug reports every rule evaluation to Observer.OnTrace. It applies
	// to rules declared after the engine is created.
	Debug bool
	// Observer receives the engine notifications, may be nil.
	Observer Observer
	// Options are the initial rule options, rule.DefaultOptions() if nil.
	Options *rule.Options
}

// Engine is a streaming tokenizer. It is not safe for concurrent use.
type Engine struct {
	name     string
	debug    bool
	observer Observer
	scoped   logrus.FieldLogger

	opts   rule.Options
	active *ruleset.RuleSet
	saved  map[string]*ruleset.RuleSet
	// ruleIndex is the first rule evaluated by the next drain step
	ruleIndex int

	buf    []byte
	cursor int
	// skip is the number of bytes to drop from future writes, set when
	// seeking past the buffered data
	skip int

	paused   bool
	ending   bool
	ended    bool
	draining bool
	// stalled is set when no rule can ever match at the cursor
	stalled bool

	// base is the stream position of buf[0], pos the one of buf[posOffset]
	base      lexer.Position
	pos       lexer.Position
	posOffset int
}

// New returns an engine with an empty default rule set.
func New(cfg Config) *Engine {
	opts := rule.DefaultOptions()
	if cfg.Options != nil {
		opts = *cfg.Options
	}
	e := &Engine{
		name:     cfg.Name,
		debug:    cfg.Debug,
		observer: cfg.Observer,
		scoped:   log.WithField(logfields.Name, cfg.Name),
		opts:     opts,
		active:   ruleset.New(defaults.RuleSetName),
		saved:    make(map[string]*ruleset.RuleSet),
	}
	e.resetPosition()
	return e
}

// Write appends p to the buffer and tokenizes as much of it as possible.
func (e *Engine) Write(p []byte) (int, error) {
	if e.ended || e.ending {
		return 0, ErrEnded
	}
	e.append(p)
	return len(p), e.drain()
}

// WriteString is Write for strings.
func (e *Engine) WriteString(s string) (int, error) {
	return e.Write([]byte(s))
}

// End writes the last chunk p, which may be nil, and ends the stream. The end
// is notified once the buffer was drained; on a paused engine, this happens
// on Resume.
func (e *Engine) End(p []byte) error {
	if e.ended || e.ending {
		return ErrEnded
	}
	e.append(p)
	e.ending = true
	return e.drain()
}

// Close ends the stream. Closing an ended engine is a no-op.
func (e *Engine) Close() error {
	if e.ended || e.ending {
		return nil
	}
	return e.End(nil)
}

// Pause stops tokenizing until Resume. Writes are buffered.
func (e *Engine) Pause() error {
	if e.ended {
		return ErrEnded
	}
	e.paused = true
	return nil
}

// Resume resumes tokenizing the buffered data.
func (e *Engine) Resume() error {
	if e.ended {
		return ErrEnded
	}
	if !e.paused {
		return nil
	}
	e.paused = false
	return e.drain()
}

// Paused returns true if the engine is paused.
func (e *Engine) Paused() bool {
	return e.paused
}

// Ended returns true once the end of the stream was notified.
func (e *Engine) Ended() bool {
	return e.ended
}

// Len returns the size of the data not consumed yet.
func (e *Engine) Len() int {
	return len(e.buf) - e.cursor
}

// Position returns the stream position of the cursor.
func (e *Engine) Position() lexer.Position {
	return e.position(e.cursor)
}

// Stalled returns true when the buffered data holds at least the longest
// possible match of every active rule and none matched: no further write can
// produce a token at the cursor. It is never set while a rule set has
// unbounded rules, such as searches, loops or functions.
func (e *Engine) Stalled() bool {
	return e.stalled
}

// Seek moves the cursor by n bytes. Moving past the buffered data skips the
// missing bytes as they are written. Only the data of the current write can
// be seeked back into.
func (e *Engine) Seek(n int) error {
	if e.ended {
		return ErrEnded
	}
	target := e.cursor + e.skip + n
	if target < 0 {
		return errors.Wrapf(ErrSeekOutOfRange, "seek %d from %d", n, e.cursor+e.skip)
	}
	if target > len(e.buf) {
		e.cursor, e.skip = len(e.buf), target-len(e.buf)
	} else {
		e.cursor, e.skip = target, 0
	}
	e.stalled = false
	return nil
}

// Flush returns and drops the data not consumed yet.
func (e *Engine) Flush() []byte {
	tail := slices.Clone(e.buf[e.cursor:])
	e.base = e.position(len(e.buf))
	e.buf = e.buf[:0]
	e.cursor = 0
	e.stalled = false
	e.pos, e.posOffset = e.base, 0
	return tail
}

// Clear drops the buffered data. Unless keepRuleSets is set, the saved rule
// sets and the rules of the active rule set are dropped too.
func (e *Engine) Clear(keepRuleSets bool) error {
	if e.ended {
		return ErrEnded
	}
	e.buf = nil
	e.cursor, e.skip, e.ruleIndex = 0, 0, 0
	e.stalled = false
	e.resetPosition()
	if !keepRuleSets {
		e.active = ruleset.New(defaults.RuleSetName)
		e.saved = make(map[string]*ruleset.RuleSet)
	}
	return nil
}

func (e *Engine) append(p []byte) {
	e.buf = append(e.buf, p...)
	if e.skip > 0 {
		n := min(e.skip, len(e.buf)-e.cursor)
		e.cursor += n
		e.skip -= n
	}
}

// drain runs the active rules against the buffer until none matches. Nested
// calls, made by handlers, return immediately: the outer loop picks up the
// changes.
func (e *Engine) drain() (err error) {
	if e.draining {
		return nil
	}
	e.draining = true
	defer func() {
		e.draining = false
	}()

	// seen holds the states left by zero-length matches at the cursor
	var seen map[visit]struct{}

	for !e.paused && e.cursor < len(e.buf) {
		set, from, start := e.active, e.ruleIndex, e.cursor
		if from >= set.Len() {
			from = 0
		}

		i, m := set.Match(e.buf, start, from)
		if i < 0 {
			e.checkStalled(set, start)
			break
		}
		e.stalled = false

		r := set.Rule(i)
		opts := r.Options()
		if opts.Next != "" {
			if err = e.load(opts.Next, opts.NextIndex); err != nil {
				break
			}
		} else {
			e.ruleIndex = 0
		}
		if opts.Continue != nil && opts.Next == "" {
			e.ruleIndex = i + 1 + *opts.Continue
			if e.ruleIndex < 0 || e.ruleIndex >= set.Len() {
				e.ruleIndex = 0
			}
		}

		tok := r.Token(e.buf, m)
		tok.Pos = e.position(m.Start)
		e.cursor += m.Consumed

		if e.debug {
			e.trace(TraceFire, set, r, start, m)
		}
		if !opts.Ignore {
			e.emit(set, r, tok)
		}

		if opts.Break {
			break
		}
		if m.Consumed != 0 || e.cursor != start {
			clear(seen)
			continue
		}
		// zero-length matches stop once they lead back to a known state
		if seen == nil {
			seen = make(map[visit]struct{})
		}
		seen[visit{set: set.Name(), index: from}] = struct{}{}
		next := visit{set: e.active.Name(), index: e.ruleIndex}
		if next.index >= e.active.Len() {
			next.index = 0
		}
		if _, ok := seen[next]; ok {
			break
		}
	}

	e.compact()

	if e.ending && !e.paused {
		e.ending, e.ended = false, true
		e.scoped.Debug("Tokenizer ended")
		if e.observer != nil {
			e.observer.OnEnd()
		}
	}
	return err
}

// visit is a rule evaluation state of the drain loop.
type visit struct {
	set   string
	index int
}

// checkStalled updates the stalled state after no rule of set matched at
// offset.
func (e *Engine) checkStalled(set *ruleset.RuleSet, offset int) {
	lookAhead := set.MaxLength()
	if lookAhead < 0 || len(e.buf)-offset < lookAhead {
		e.stalled = false
		return
	}
	if !e.stalled {
		e.scoped.WithFields(logrus.Fields{
			logfields.RuleSet: set.Name(),
			logfields.Offset:  offset,
			logfields.Length:  lookAhead,
		}).Warning("No rule can match the buffered data")
	}
	e.stalled = true
}

func (e *Engine) emit(set *ruleset.RuleSet, r *rule.Rule, tok rule.Token) {
	switch {
	case r.Handler() != nil:
		r.Handler()(tok)
	case set.DefaultHandler() != nil:
		set.DefaultHandler()(tok)
	case e.observer != nil:
		e.observer.OnData(tok)
	}
}

func (e *Engine) trace(kind TraceKind, set *ruleset.RuleSet, r *rule.Rule, offset int, m rule.Match) {
	if e.observer == nil {
		return
	}
	e.observer.OnTrace(TraceEvent{
		Kind:     kind,
		RuleSet:  set.Name(),
		Rule:     r.String(),
		Offset:   offset,
		Consumed: m.Consumed,
		Index:    m.Index,
		Matched:  m.Matched(),
	})
}

// compact drops the consumed data from the buffer.
func (e *Engine) compact() {
	if e.cursor == 0 {
		return
	}
	e.base = e.position(e.cursor)
	n := copy(e.buf, e.buf[e.cursor:])
	e.buf = e.buf[:n]
	e.cursor = 0
	e.pos, e.posOffset = e.base, 0
}

func (e *Engine) resetPosition() {
	e.base = lexer.Position{Filename: e.name, Line: 1, Column: 1}
	e.pos, e.posOffset = e.base, 0
}

// position returns the stream position of buf[offset].
func (e *Engine) position(offset int) lexer.Position {
	if offset < e.posOffset {
		e.pos, e.posOffset = e.base, 0
	}
	e.pos.Advance(string(e.buf[e.posOffset:offset]))
	e.posOffset = offset
	return e.pos
}
