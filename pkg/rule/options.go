// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package rule

import (
	"github.com/cilium/streamtok/pkg/defaults"
)

// Options control token extraction and the engine control flow after a rule
// fires. They are copied into the rule when it is declared.
type Options struct {
	// TrimLeft drops the data matched by the first pattern from the token,
	// unless that pattern yields data on its own.
	TrimLeft bool `json:"trimLeft"`
	// TrimRight drops the data matched by the last pattern from the token.
	// It has no effect on single pattern rules.
	TrimRight bool `json:"trimRight"`
	// Ignore discards matched data: no handler is invoked.
	Ignore bool `json:"ignore,omitempty"`
	// Quiet invokes the handler with the token size but no token value.
	Quiet bool `json:"quiet,omitempty"`
	// Escape is the escape byte of searching patterns, 0 disables escaping.
	Escape byte `json:"escape,omitempty"`
	// Continue, when set, resumes rule evaluation *Continue rules after the
	// one that fired instead of restarting from the first rule.
	Continue *int `json:"continue,omitempty"`
	// Break stops draining the buffer once the rule fired.
	Break bool `json:"break,omitempty"`
	// Next is the name of the rule set made active once the rule fired.
	Next string `json:"next,omitempty"`
	// NextIndex is the first rule evaluated in the Next rule set.
	NextIndex int `json:"nextIndex,omitempty"`
}

// DefaultOptions returns the options a new engine starts with.
func DefaultOptions() Options {
	return Options{
		TrimLeft:  defaults.TrimLeft,
		TrimRight: defaults.TrimRight,
		Escape:    defaults.Escape,
	}
}

// Jump returns a Continue value skipping n rules.
func Jump(n int) *int {
	return &n
}

// loop reports whether matched data is discarded without further inspection,
// which lets the first pattern consume consecutive repetitions at once.
func (o Options) loop() bool {
	return o.Ignore && o.Continue == nil && o.Next == ""
}
