// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package tokenizer

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/matcher"
	"github.com/cilium/streamtok/pkg/rule"
)

// Options returns the options applied to the rules declared next.
func (e *Engine) Options() rule.Options {
	return e.opts
}

// SetOptions sets the options applied to the rules declared next. Rules
// already declared are not affected.
func (e *Engine) SetOptions(opts rule.Options) error {
	if e.ended {
		return ErrEnded
	}
	e.opts = opts
	return nil
}

// SetDefaultHandler sets the handler of the active rule set rules declared
// without handler.
func (e *Engine) SetDefaultHandler(h rule.Handler) error {
	if e.ended {
		return ErrEnded
	}
	e.active.SetDefaultHandler(h)
	return nil
}

// newRule builds a rule for the active rule set, which is about to change.
func (e *Engine) newRule(id any, patterns []matcher.Pattern) (*rule.Rule, error) {
	if e.ended {
		return nil, ErrEnded
	}
	e.stalled = false
	r, err := rule.New(id, patterns, e.opts)
	if err != nil {
		return nil, err
	}
	if e.debug {
		r = r.Traced(func(r *rule.Rule, offset int, m rule.Match) {
			e.trace(TraceTest, e.active, r, offset, m)
		})
	}
	return r, nil
}

// AddRule appends a rule matching patterns to the active rule set. id is the
// rule type, a string or an integer, or its handler.
func (e *Engine) AddRule(id any, patterns ...matcher.Pattern) error {
	r, err := e.newRule(id, patterns)
	if err != nil {
		return err
	}
	e.active.Append(r)
	return nil
}

// AddRuleFirst is AddRule with the new rule taking precedence over all
// others.
func (e *Engine) AddRuleFirst(id any, patterns ...matcher.Pattern) error {
	r, err := e.newRule(id, patterns)
	if err != nil {
		return err
	}
	e.active.Prepend(r)
	return nil
}

// AddRuleBefore is AddRule with the new rule inserted right before the
// existing one.
func (e *Engine) AddRuleBefore(existing, id any, patterns ...matcher.Pattern) error {
	r, err := e.newRule(id, patterns)
	if err != nil {
		return err
	}
	return e.active.InsertBefore(existing, r)
}

// AddRuleAfter is AddRule with the new rule inserted right after the
// existing one.
func (e *Engine) AddRuleAfter(existing, id any, patterns ...matcher.Pattern) error {
	r, err := e.newRule(id, patterns)
	if err != nil {
		return err
	}
	return e.active.InsertAfter(existing, r)
}

// RemoveRule removes the first rule identified by id from the active rule
// set.
func (e *Engine) RemoveRule(id any) error {
	if e.ended {
		return ErrEnded
	}
	e.stalled = false
	return e.active.Remove(id)
}

// ClearRule removes all rules from the active rule set.
func (e *Engine) ClearRule() error {
	if e.ended {
		return ErrEnded
	}
	e.active.Clear()
	e.ruleIndex = 0
	e.stalled = false
	return nil
}

// RuleSet returns the name of the active rule set.
func (e *Engine) RuleSet() string {
	return e.active.Name()
}

// SavedRuleSets returns the names of the saved rule sets, sorted.
func (e *Engine) SavedRuleSets() []string {
	names := lo.Keys(e.saved)
	slices.Sort(names)
	return names
}

// SaveRuleSet saves a copy of the active rule set under name, which becomes
// the active rule set name.
func (e *Engine) SaveRuleSet(name string) error {
	if e.ended {
		return ErrEnded
	}
	if name == "" {
		return ErrMissingName
	}
	e.saved[name] = e.active.Clone(name)
	e.active = e.active.Clone(name)
	e.scoped.WithField(logfields.RuleSet, name).Debug("Saved rule set")
	return nil
}

// LoadRuleSet makes a copy of the rule set saved under name active.
func (e *Engine) LoadRuleSet(name string) error {
	return e.Next(name, 0)
}

// Next is LoadRuleSet with rule evaluation starting at rule index.
func (e *Engine) Next(name string, index int) error {
	if e.ended {
		return ErrEnded
	}
	return e.load(name, index)
}

func (e *Engine) load(name string, index int) error {
	if name == "" {
		return ErrMissingName
	}
	set, ok := e.saved[name]
	if !ok {
		return errors.Wrapf(ErrUnknownRuleSet, "%q", name)
	}
	e.active = set.Clone(name)
	e.ruleIndex = index
	e.stalled = false
	e.scoped.WithFields(logrus.Fields{
		logfields.RuleSet:   name,
		logfields.RuleIndex: index,
	}).Debug("Loaded rule set")
	return nil
}
