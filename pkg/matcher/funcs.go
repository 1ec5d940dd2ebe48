// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

// funcs tries user supplied functions in order.
type funcs struct {
	shape
	fns []Func
}

func (m *funcs) Match(data []byte, offset int) Result {
	for i, f := range m.fns {
		if n := f(data, offset); n >= 0 {
			return Result{Consumed: n, Index: i, Size: n}
		}
	}
	return NoMatch
}
