// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"bytes"

	"github.com/pkg/errors"
)

func newList(list []string, pos int, loop bool) (Matcher, error) {
	if len(list) == 0 {
		if pos == 0 {
			return placeholder{shape{length: 0}}, nil
		}
		return nil, errors.Wrapf(ErrEmptyPattern, "list at position %d", pos)
	}

	width := len(list[0])
	for _, s := range list {
		if len(s) != width {
			width = -1
		}
	}
	if width == 0 && pos == 0 {
		return placeholder{shape{length: 0}}, nil
	}
	for _, s := range list {
		if s == "" {
			return nil, errors.Wrap(ErrEmptyPattern, "list item")
		}
	}

	sh := shape{length: maxLen(list)}
	if loop || pos > 0 {
		sh.length = unbounded
	}
	encoded := make([][]byte, len(list))
	for i, s := range list {
		encoded[i] = []byte(s)
	}

	switch {
	case pos > 0:
		return &searchList{shape: sh, list: encoded}, nil
	case width == 1:
		m := &byteSet{shape: sh, loop: loop}
		// the first declaration of a byte wins
		for i := len(list) - 1; i >= 0; i-- {
			m.table[list[i][0]] = i + 1
		}
		return m, nil
	case loop:
		return &listLoop{shape: sh, list: encoded, width: width}, nil
	}
	return &anchoredList{shape: sh, list: encoded, width: width}, nil
}

// byteSet matches one byte out of a set of single byte alternatives.
type byteSet struct {
	shape
	// table maps a byte to its declaration index + 1, 0 if absent
	table [256]int
	loop  bool
}

func (m *byteSet) Match(data []byte, offset int) Result {
	if offset >= len(data) {
		return NoMatch
	}
	idx := m.table[data[offset]]
	if idx == 0 {
		return NoMatch
	}
	if !m.loop {
		return Result{Consumed: 1, Index: idx - 1, Size: 1}
	}

	pos := offset + 1
	for pos < len(data) && m.table[data[pos]] != 0 {
		pos++
	}
	return Result{Consumed: pos - offset, Index: idx - 1, Size: pos - offset}
}

// anchoredList matches the first declared string found at the offset. A
// positive width means all alternatives have that length.
type anchoredList struct {
	shape
	list  [][]byte
	width int
}

func (m *anchoredList) Match(data []byte, offset int) Result {
	i := matchAt(m.list, m.width, data, offset)
	if i < 0 {
		return NoMatch
	}
	n := len(m.list[i])
	return Result{Consumed: n, Index: i, Size: n}
}

// listLoop is anchoredList consuming consecutive matches of any alternative.
type listLoop struct {
	shape
	list  [][]byte
	width int
}

func (m *listLoop) Match(data []byte, offset int) Result {
	first := matchAt(m.list, m.width, data, offset)
	if first < 0 {
		return NoMatch
	}
	pos := offset + len(m.list[first])
	for {
		i := matchAt(m.list, m.width, data, pos)
		if i < 0 {
			break
		}
		pos += len(m.list[i])
	}
	return Result{Consumed: pos - offset, Index: first, Size: pos - offset}
}

func matchAt(list [][]byte, width int, data []byte, offset int) int {
	if offset > len(data) || (width > 0 && len(data)-offset < width) {
		return -1
	}
	rest := data[offset:]
	for i, s := range list {
		if bytes.HasPrefix(rest, s) {
			return i
		}
	}
	return -1
}

// searchList searches for each alternative in declaration order, the first
// alternative found anywhere after the offset wins.
type searchList struct {
	shape
	list [][]byte
}

func (m *searchList) Match(data []byte, offset int) Result {
	if offset > len(data) {
		return NoMatch
	}
	rest := data[offset:]
	for i, s := range m.list {
		if j := bytes.Index(rest, s); j >= 0 {
			return Result{Consumed: j + len(s), Index: i, Size: len(s)}
		}
	}
	return NoMatch
}
