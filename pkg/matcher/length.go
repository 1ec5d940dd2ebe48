// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"sort"
)

// length consumes exactly n bytes.
type length struct {
	shape
	n int
}

func (m *length) Match(data []byte, offset int) Result {
	if len(data)-offset >= m.n {
		return Result{Consumed: m.n, Index: -1}
	}
	return NoMatch
}

// lengths consumes the longest declared length that fits.
type lengths struct {
	shape
	ns    []int
	index []int
}

func newLengths(ns []int) *lengths {
	order := make([]int, len(ns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ns[order[a]] > ns[order[b]]
	})

	m := &lengths{
		shape: shape{length: ns[order[0]], token: true},
		ns:    make([]int, len(ns)),
		index: order,
	}
	for i, j := range order {
		m.ns[i] = ns[j]
	}
	return m
}

func (m *lengths) Match(data []byte, offset int) Result {
	avail := len(data) - offset
	for i, n := range m.ns {
		if avail >= n {
			return Result{Consumed: n, Index: m.index[i]}
		}
	}
	return NoMatch
}
