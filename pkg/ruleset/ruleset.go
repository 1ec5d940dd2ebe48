// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package ruleset implements ordered, named collections of rules. The order
// of the rules is their matching priority.
package ruleset

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/rule"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "ruleset")

// ErrUnknownRule is returned when a rule identity is not part of the set
var ErrUnknownRule = errors.New("unknown rule")

// RuleSet is an ordered list of rules with an optional default handler.
// It is not safe for concurrent use.
type RuleSet struct {
	name    string
	rules   []*rule.Rule
	handler rule.Handler
}

// New returns an empty rule set.
func New(name string) *RuleSet {
	return &RuleSet{name: name}
}

// Name returns the name of the rule set.
func (s *RuleSet) Name() string {
	return s.name
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns the rules in priority order. The returned slice must not be
// modified.
func (s *RuleSet) Rules() []*rule.Rule {
	return s.rules
}

// Rule returns the rule at index i.
func (s *RuleSet) Rule(i int) *rule.Rule {
	return s.rules[i]
}

// DefaultHandler returns the handler of the rules without handler.
func (s *RuleSet) DefaultHandler() rule.Handler {
	return s.handler
}

// SetDefaultHandler sets the handler of the rules without handler, nil
// removes it.
func (s *RuleSet) SetDefaultHandler(h rule.Handler) {
	s.handler = h
}

// IndexOf returns the index of the first rule identified by id, -1 if none.
func (s *RuleSet) IndexOf(id any) int {
	_, i, _ := lo.FindIndexOf(s.rules, func(r *rule.Rule) bool {
		return r.Is(id)
	})
	return i
}

func (s *RuleSet) mustIndexOf(id any) (int, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return -1, errors.Wrapf(ErrUnknownRule, "%v in rule set %q", id, s.name)
	}
	return i, nil
}

// Append adds r with the lowest priority.
func (s *RuleSet) Append(r *rule.Rule) {
	s.insert(len(s.rules), r)
}

// Prepend adds r with the highest priority.
func (s *RuleSet) Prepend(r *rule.Rule) {
	s.insert(0, r)
}

// InsertBefore adds r right before the rule identified by id.
func (s *RuleSet) InsertBefore(id any, r *rule.Rule) error {
	i, err := s.mustIndexOf(id)
	if err != nil {
		return err
	}
	s.insert(i, r)
	return nil
}

// InsertAfter adds r right after the rule identified by id.
func (s *RuleSet) InsertAfter(id any, r *rule.Rule) error {
	i, err := s.mustIndexOf(id)
	if err != nil {
		return err
	}
	s.insert(i+1, r)
	return nil
}

func (s *RuleSet) insert(i int, r *rule.Rule) {
	s.rules = slices.Insert(s.rules, i, r)
	log.WithFields(logrus.Fields{
		logfields.RuleSet:   s.name,
		logfields.Rule:      r,
		logfields.RuleIndex: i,
	}).Debug("Added rule")
}

// Remove deletes the first rule identified by id.
func (s *RuleSet) Remove(id any) error {
	i, err := s.mustIndexOf(id)
	if err != nil {
		return err
	}
	s.rules = slices.Delete(s.rules, i, i+1)
	log.WithFields(logrus.Fields{
		logfields.RuleSet:   s.name,
		logfields.Rule:      id,
		logfields.RuleIndex: i,
	}).Debug("Removed rule")
	return nil
}

// Clear removes all rules. The default handler is kept.
func (s *RuleSet) Clear() {
	s.rules = nil
}

// Clone returns a copy of s named name. Rules are immutable and shared.
func (s *RuleSet) Clone(name string) *RuleSet {
	return &RuleSet{
		name:    name,
		rules:   slices.Clone(s.rules),
		handler: s.handler,
	}
}

// Match returns the index of the first rule, starting at from, matching data
// at offset together with its match. The index is -1 if no rule matched.
func (s *RuleSet) Match(data []byte, offset, from int) (int, rule.Match) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(s.rules); i++ {
		if m := s.rules[i].Test(data, offset); m.Matched() {
			return i, m
		}
	}
	return -1, rule.NoMatch
}

// MaxLength returns the longest match of all rules, -1 if any is unbounded.
func (s *RuleSet) MaxLength() int {
	n := 0
	for _, r := range s.rules {
		l := r.Length()
		if l < 0 {
			return -1
		}
		n = max(n, l)
	}
	return n
}
