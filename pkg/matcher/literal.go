// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"bytes"
)

func newLiteral(s string, first, loop bool, esc byte) Matcher {
	sh := shape{length: len(s)}
	if loop || !first {
		sh.length = unbounded
	}
	switch {
	case first && len(s) == 1 && loop:
		return &charLoop{shape: sh, c: s[0]}
	case first && len(s) == 1:
		return &char{shape: sh, c: s[0]}
	case first && loop:
		return &literalLoop{shape: sh, str: []byte(s)}
	case first:
		return &literal{shape: sh, str: []byte(s)}
	case esc != 0:
		return &escapedSearch{shape: sh, str: []byte(s), esc: esc}
	}
	return &search{shape: sh, str: []byte(s)}
}

// char matches a single byte at the offset.
type char struct {
	shape
	c byte
}

func (m *char) Match(data []byte, offset int) Result {
	if offset < len(data) && data[offset] == m.c {
		return single(1)
	}
	return NoMatch
}

// charLoop matches a run of the same byte.
type charLoop struct {
	shape
	c byte
}

func (m *charLoop) Match(data []byte, offset int) Result {
	pos := offset
	for pos < len(data) && data[pos] == m.c {
		pos++
	}
	if pos == offset {
		return NoMatch
	}
	return single(pos - offset)
}

// literal matches a string at the offset.
type literal struct {
	shape
	str []byte
}

func (m *literal) Match(data []byte, offset int) Result {
	if offset <= len(data) && bytes.HasPrefix(data[offset:], m.str) {
		return single(len(m.str))
	}
	return NoMatch
}

// literalLoop matches consecutive repetitions of a string.
type literalLoop struct {
	shape
	str []byte
}

func (m *literalLoop) Match(data []byte, offset int) Result {
	pos := offset
	for pos <= len(data) && bytes.HasPrefix(data[pos:], m.str) {
		pos += len(m.str)
	}
	if pos == offset {
		return NoMatch
	}
	return single(pos - offset)
}

// search looks for the next occurrence of a string, consuming everything up
// to and including it.
type search struct {
	shape
	str []byte
}

func (m *search) Match(data []byte, offset int) Result {
	if offset > len(data) {
		return NoMatch
	}
	i := bytes.Index(data[offset:], m.str)
	if i < 0 {
		return NoMatch
	}
	return Result{Consumed: i + len(m.str), Index: -1, Size: len(m.str)}
}

// escapedSearch is search skipping occurrences preceded by an odd number of
// escape bytes.
type escapedSearch struct {
	shape
	str []byte
	esc byte
}

func (m *escapedSearch) Match(data []byte, offset int) Result {
	from := offset
	for from <= len(data) {
		i := bytes.Index(data[from:], m.str)
		if i < 0 {
			return NoMatch
		}
		at := from + i
		if !escaped(data, at, m.esc) {
			return Result{Consumed: at - offset + len(m.str), Index: -1, Size: len(m.str)}
		}
		from = at + 1
	}
	return NoMatch
}
