// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package ruleset

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/cilium/streamtok/pkg/matcher"
	"github.com/cilium/streamtok/pkg/rule"
)

func newRule(t *testing.T, id any, patterns ...matcher.Pattern) *rule.Rule {
	t.Helper()
	r, err := rule.New(id, patterns, rule.DefaultOptions())
	require.NoError(t, err)
	return r
}

func types(s *RuleSet) []any {
	return lo.Map(s.Rules(), func(r *rule.Rule, _ int) any { return r.Type() })
}

func TestOrdering(t *testing.T) {
	s := New("main")
	s.Append(newRule(t, "b", matcher.Literal("b")))
	s.Prepend(newRule(t, "a", matcher.Literal("a")))
	s.Append(newRule(t, "d", matcher.Literal("d")))
	require.NoError(t, s.InsertBefore("d", newRule(t, "c", matcher.Literal("c"))))
	require.NoError(t, s.InsertAfter("d", newRule(t, 5, matcher.Literal("e"))))
	require.Equal(t, []any{"a", "b", "c", "d", 5}, types(s))

	require.NoError(t, s.Remove("c"))
	require.Equal(t, []any{"a", "b", "d", 5}, types(s))
	require.Equal(t, 2, s.IndexOf("d"))
	require.Equal(t, -1, s.IndexOf("c"))

	err := s.Remove("c")
	require.True(t, errors.Is(err, ErrUnknownRule))
	err = s.InsertBefore("z", newRule(t, "y"))
	require.True(t, errors.Is(err, ErrUnknownRule))
	err = s.InsertAfter(42, newRule(t, "y"))
	require.True(t, errors.Is(err, ErrUnknownRule))
	require.Equal(t, 4, s.Len())

	s.Clear()
	require.Equal(t, 0, s.Len())
}

func TestRemoveByHandler(t *testing.T) {
	h1 := func(rule.Token) {}
	h2 := func(rule.Token) {}

	s := New("main")
	s.Append(newRule(t, h1, matcher.Literal("a")))
	s.Append(newRule(t, h2, matcher.Literal("b")))
	s.Append(newRule(t, 1, matcher.Literal("c")))

	require.NoError(t, s.Remove(h1))
	require.Equal(t, 2, s.Len())
	require.True(t, s.Rule(0).Is(h2))
	require.NoError(t, s.Remove(1))
	require.Equal(t, 1, s.Len())
}

func TestPriority(t *testing.T) {
	s := New("main")
	s.Append(newRule(t, "first", matcher.Literal("a")))
	s.Append(newRule(t, "second", matcher.AnyOf("a", "b")))

	for i := 0; i < 10; i++ {
		idx, m := s.Match([]byte("ab"), 0, 0)
		require.Equal(t, 0, idx)
		require.Equal(t, 1, m.Consumed)
	}

	idx, m := s.Match([]byte("ab"), 1, 0)
	require.Equal(t, 1, idx)
	require.Equal(t, 1, m.Consumed)

	idx, _ = s.Match([]byte("ab"), 0, 1)
	require.Equal(t, 1, idx)

	idx, m = s.Match([]byte("c"), 0, 0)
	require.Equal(t, -1, idx)
	require.False(t, m.Matched())

	require.NoError(t, s.Remove("first"))
	s.Prepend(newRule(t, "first", matcher.Literal("a")))
	s.Prepend(newRule(t, "third", matcher.Literal("a")))
	idx, _ = s.Match([]byte("a"), 0, 0)
	require.Equal(t, "third", s.Rule(idx).Type())
}

func TestClone(t *testing.T) {
	var got []rule.Token
	s := New("main")
	s.Append(newRule(t, "a", matcher.Literal("a")))
	s.SetDefaultHandler(func(tok rule.Token) { got = append(got, tok) })

	c := s.Clone("copy")
	require.Equal(t, "copy", c.Name())
	require.Equal(t, 1, c.Len())
	require.NotNil(t, c.DefaultHandler())

	c.Append(newRule(t, "b", matcher.Literal("b")))
	require.Equal(t, 1, s.Len())
	require.Equal(t, 2, c.Len())

	c.DefaultHandler()(rule.Token{Value: "x"})
	require.Len(t, got, 1)

	s.Clear()
	require.NotNil(t, s.DefaultHandler())
	require.Equal(t, 2, c.Len())
}

func TestMaxLength(t *testing.T) {
	s := New("main")
	require.Equal(t, 0, s.MaxLength())
	s.Append(newRule(t, "a", matcher.Literal("abc")))
	s.Append(newRule(t, "b", matcher.Literal("x"), matcher.Length(5)))
	require.Equal(t, 6, s.MaxLength())
	s.Append(newRule(t, "c", matcher.Literal("x"), matcher.Literal("y")))
	require.Equal(t, -1, s.MaxLength())
	require.NoError(t, s.Remove("c"))
	require.Equal(t, 6, s.MaxLength())
	s.Append(newRule(t, "rest"))
	require.Equal(t, -1, s.MaxLength())
}
