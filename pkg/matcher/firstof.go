// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"bytes"
)

func newFirstOf(list []string, esc byte, token bool) Matcher {
	m := &firstOf{
		shape: shape{length: unbounded, token: token},
		list:  make([][]byte, len(list)),
		esc:   esc,
	}
	for i, s := range list {
		m.list[i] = []byte(s)
	}
	return m
}

// firstOf searches for the left-most occurrence of any candidate. Ties are
// won by the candidate declared first. With a non zero escape byte, escaped
// occurrences are skipped. As the last pattern of a rule it yields the data
// preceding the hit, otherwise it is trimmed like any search.
type firstOf struct {
	shape
	list [][]byte
	esc  byte
}

func (m *firstOf) Match(data []byte, offset int) Result {
	if offset > len(data) {
		return NoMatch
	}

	best, bestIdx := -1, -1
	for i, s := range m.list {
		limit := len(data)
		if best >= 0 {
			// only occurrences starting before the current best can win
			limit = offset + best + len(s) - 1
			if limit > len(data) {
				limit = len(data)
			}
		}
		if at := m.find(data[:limit], offset, s); at >= 0 {
			best, bestIdx = at-offset, i
			if best == 0 {
				break
			}
		}
	}

	if bestIdx < 0 {
		return NoMatch
	}
	size := len(m.list[bestIdx])
	return Result{Consumed: best + size, Index: bestIdx, Size: size}
}

// find returns the absolute position of the first unescaped s in data after
// offset, -1 if none.
func (m *firstOf) find(data []byte, offset int, s []byte) int {
	from := offset
	for from <= len(data) {
		i := bytes.Index(data[from:], s)
		if i < 0 {
			return -1
		}
		at := from + i
		if m.esc == 0 || !escaped(data, at, m.esc) {
			return at
		}
		from = at + 1
	}
	return -1
}
