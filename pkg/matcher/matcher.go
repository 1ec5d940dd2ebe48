// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package matcher implements the leaf pattern matchers of the tokenizer.
//
// A Pattern is compiled once into a Matcher specialized for its shape, its
// position inside the owning rule and the rule options. Matching never
// inspects the pattern shape again.
package matcher

import (
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedPattern is returned for pattern values of unknown shape
	ErrUnsupportedPattern = errors.New("unsupported pattern")
	// ErrEmptyPattern is returned for empty patterns where they carry no meaning
	ErrEmptyPattern = errors.New("empty pattern")
	// ErrMixedTypes is returned for lists whose items are not all of the same type
	ErrMixedTypes = errors.New("list items must be of the same type")
	// ErrFirstOfTooShort is returned for firstOf lists with less than 2 candidates
	ErrFirstOfTooShort = errors.New("firstOf requires at least 2 candidates")
	// ErrRangeMismatch is returned when range start and end lists differ in size
	ErrRangeMismatch = errors.New("range start and end must be of the same size")
	// ErrNegativeLength is returned for negative length patterns
	ErrNegativeLength = errors.New("length cannot be negative")
	// ErrUnsupportedPosition is returned for patterns that are only valid first
	ErrUnsupportedPosition = errors.New("pattern only supported as first pattern")
)

// Result is the outcome of a single Match call.
type Result struct {
	// Consumed is the number of bytes matched from the offset, -1 when the
	// matcher did not match.
	Consumed int
	// Index is the alternative that matched, -1 when the pattern has a
	// single alternative.
	Index int
	// Size is the length of the matched pattern itself. For searching
	// matchers it excludes the skipped data, for length matchers it is 0.
	Size int
}

// NoMatch is the Result of a failed match.
var NoMatch = Result{Consumed: -1, Index: -1}

// Matched returns true if the result denotes a match.
func (r Result) Matched() bool {
	return r.Consumed >= 0
}

func single(n int) Result {
	return Result{Consumed: n, Index: -1, Size: n}
}

// Matcher tests one pattern against data at a given offset.
type Matcher interface {
	// Match returns the result of matching data at offset.
	Match(data []byte, offset int) Result
	// Length is the longest possible match, -1 if unbounded. Searching and
	// looping matchers are unbounded.
	Length() int
	// Token returns true if the matcher yields data on its own, in which
	// case it is never trimmed away from the token.
	Token() bool
}

// Options are the owning rule properties relevant to matcher selection.
type Options struct {
	// Loop selects the loop-merge specializations: consecutive repetitions
	// of the pattern are consumed by one call.
	Loop bool
	// Escape is the escape byte for searching matchers, 0 disables escaping.
	Escape byte
}

// shape carries the static properties shared by all matchers.
type shape struct {
	length int
	token  bool
}

func (s shape) Length() int { return s.length }
func (s shape) Token() bool { return s.token }

// placeholder stands for an empty first pattern. Rules drop it.
type placeholder struct{ shape }

func (placeholder) Match(data []byte, offset int) Result {
	return single(0)
}

// IsPlaceholder returns true if m was compiled from an empty first pattern
// and carries no matching logic.
func IsPlaceholder(m Matcher) bool {
	_, ok := m.(placeholder)
	return ok
}

// New compiles p into the Matcher specialized for its shape, its position pos
// among count patterns of the owning rule, and opts.
func New(p Pattern, pos, count int, opts Options) (Matcher, error) {
	first := pos == 0
	loop := opts.Loop && first

	switch p.kind {
	case KindLength:
		if p.n < 0 {
			return nil, errors.Wrapf(ErrNegativeLength, "length %d", p.n)
		}
		return &length{shape: shape{length: p.n, token: true}, n: p.n}, nil

	case KindLengths:
		if !first {
			return nil, errors.Wrapf(ErrUnsupportedPosition, "lengths %v at position %d", p.ns, pos)
		}
		if len(p.ns) == 0 {
			return nil, errors.Wrap(ErrEmptyPattern, "lengths")
		}
		for _, n := range p.ns {
			if n < 0 {
				return nil, errors.Wrapf(ErrNegativeLength, "length %d", n)
			}
		}
		return newLengths(p.ns), nil

	case KindLiteral:
		if p.str == "" {
			if first {
				return placeholder{shape{length: 0}}, nil
			}
			return nil, errors.Wrapf(ErrEmptyPattern, "literal at position %d", pos)
		}
		return newLiteral(p.str, first, loop, opts.Escape), nil

	case KindList:
		return newList(p.list, pos, loop)

	case KindRange:
		return newRange(p.start, p.end, loop)

	case KindFirstOf:
		if len(p.list) < 2 {
			return nil, errors.Wrapf(ErrFirstOfTooShort, "got %d", len(p.list))
		}
		for _, s := range p.list {
			if s == "" {
				return nil, errors.Wrap(ErrEmptyPattern, "firstOf candidate")
			}
		}
		// only a trailing firstOf delimits the token data
		return newFirstOf(p.list, opts.Escape, pos == count-1), nil

	case KindFunc:
		if len(p.funcs) == 0 {
			return nil, errors.Wrap(ErrEmptyPattern, "function list")
		}
		for _, f := range p.funcs {
			if f == nil {
				return nil, errors.Wrap(ErrUnsupportedPattern, "nil function")
			}
		}
		return &funcs{shape: shape{length: unbounded}, fns: p.funcs}, nil
	}

	return nil, errors.Wrapf(ErrUnsupportedPattern, "kind %d", p.kind)
}

// escaped returns true if the byte at i is preceded by an odd number of
// consecutive esc bytes.
func escaped(data []byte, i int, esc byte) bool {
	n := 0
	for j := i - 1; j >= 0 && data[j] == esc; j-- {
		n++
	}
	return n%2 == 1
}

// unbounded is the Length of searching and looping matchers.
const unbounded = -1

func maxLen(list []string) int {
	m := 0
	for _, s := range list {
		if len(s) > m {
			m = len(s)
		}
	}
	return m
}
