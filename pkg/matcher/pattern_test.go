// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package matcher

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  Kind
		err   error
	}{
		{name: "integer", value: 3, kind: KindLength},
		{name: "decoded number", value: float64(2), kind: KindLength},
		{name: "negative", value: -1, err: ErrNegativeLength},
		{name: "fraction", value: 1.5, err: ErrUnsupportedPattern},
		{name: "string", value: "abc", kind: KindLiteral},
		{name: "numbers", value: []any{1, float64(2)}, kind: KindLengths},
		{name: "strings", value: []any{"a", "bc"}, kind: KindList},
		{name: "mixed", value: []any{"a", 1}, err: ErrMixedTypes},
		{name: "range", value: map[string]any{"start": "a", "end": "z"}, kind: KindRange},
		{name: "start only", value: map[string]any{"start": float64(48)}, kind: KindRange},
		{name: "code out of range", value: map[string]any{"end": 300}, err: ErrUnsupportedPattern},
		{name: "firstOf string", value: map[string]any{"firstOf": "ab"}, kind: KindFirstOf},
		{name: "firstOf list", value: map[string]any{"firstOf": []any{"ab", "c"}}, kind: KindFirstOf},
		{name: "firstOf mixed", value: map[string]any{"firstOf": []any{"ab", 1}}, err: ErrMixedTypes},
		{name: "empty object", value: map[string]any{}, err: ErrUnsupportedPattern},
		{name: "boolean", value: true, err: ErrUnsupportedPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.value)
			if tt.err != nil {
				require.True(t, errors.Is(err, tt.err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.kind, p.Kind())
		})
	}
}

func TestParseCompiles(t *testing.T) {
	p, err := Parse(map[string]any{"start": "aA", "end": "z"})
	require.NoError(t, err)
	_, err = New(p, 0, 1, Options{})
	require.True(t, errors.Is(err, ErrRangeMismatch))

	p, err = Parse(map[string]any{"firstOf": `"`})
	require.NoError(t, err)
	_, err = New(p, 0, 1, Options{})
	require.True(t, errors.Is(err, ErrFirstOfTooShort))

	p, err = Parse([]any{float64(1), float64(3)})
	require.NoError(t, err)
	m, err := New(p, 0, 1, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, m.Match([]byte("abc"), 0).Consumed)
}
