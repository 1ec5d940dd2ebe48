// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"math"

	"github.com/pkg/errors"
)

func newRange(start, end []byte, loop bool) (Matcher, error) {
	hasStart, hasEnd := start != nil, end != nil
	switch {
	case !hasStart && !hasEnd:
		return nil, errors.Wrap(ErrUnsupportedPattern, "range without bounds")
	case (hasStart && len(start) == 0) || (hasEnd && len(end) == 0):
		return nil, errors.Wrap(ErrEmptyPattern, "range bound")
	case hasStart && hasEnd && len(start) != len(end):
		return nil, errors.Wrapf(ErrRangeMismatch, "start %q, end %q", start, end)
	}

	// Start-only and end-only bounds are closed with the byte limits.
	n := len(start)
	if !hasStart {
		n = len(end)
	}
	lo := make([]byte, n)
	hi := make([]byte, n)
	for i := 0; i < n; i++ {
		lo[i], hi[i] = 0, math.MaxUint8
		if hasStart {
			lo[i] = start[i]
		}
		if hasEnd {
			hi[i] = end[i]
		}
	}

	sh := shape{length: 1}
	if loop {
		sh.length = unbounded
	}
	if n == 1 {
		if loop {
			return &byteRangeLoop{shape: sh, lo: lo[0], hi: hi[0]}, nil
		}
		return &byteRange{shape: sh, lo: lo[0], hi: hi[0]}, nil
	}

	m := &byteRanges{shape: sh, loop: loop}
	for i := range lo {
		for c := int(lo[i]); c <= int(hi[i]); c++ {
			m.table[c] = true
		}
	}
	return m, nil
}

// byteRange matches one byte inside [lo, hi].
type byteRange struct {
	shape
	lo, hi byte
}

func (m *byteRange) Match(data []byte, offset int) Result {
	if offset < len(data) {
		if c := data[offset]; c >= m.lo && c <= m.hi {
			return single(1)
		}
	}
	return NoMatch
}

// byteRangeLoop matches a run of bytes inside [lo, hi].
type byteRangeLoop struct {
	shape
	lo, hi byte
}

func (m *byteRangeLoop) Match(data []byte, offset int) Result {
	pos := offset
	for pos < len(data) && data[pos] >= m.lo && data[pos] <= m.hi {
		pos++
	}
	if pos <= offset {
		return NoMatch
	}
	return single(pos - offset)
}

// byteRanges matches one byte, or a run of bytes when looping, inside any of
// several ranges. The ranges are flattened in a lookup table.
type byteRanges struct {
	shape
	table [256]bool
	loop  bool
}

func (m *byteRanges) Match(data []byte, offset int) Result {
	if offset >= len(data) || !m.table[data[offset]] {
		return NoMatch
	}
	if !m.loop {
		return single(1)
	}
	pos := offset + 1
	for pos < len(data) && m.table[data[pos]] {
		pos++
	}
	return single(pos - offset)
}
