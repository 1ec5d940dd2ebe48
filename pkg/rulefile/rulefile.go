// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package rulefile loads declarative tokenizer rules from YAML or JSON
// documents.
//
//	options:
//	  escape: "\\"
//	ruleSets:
//	- name: main
//	  rules:
//	  - type: blank
//	    patterns: [[" ", "\t", "\n"]]
//	    options: {ignore: true}
//	  - type: word
//	    patterns: ["", {firstOf: " \t\n"}]
//
// Patterns follow matcher.Parse. Every rule set is saved under its name, the
// engine starts with the Start rule set, or the first one.
package rulefile

import (
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/matcher"
	"github.com/cilium/streamtok/pkg/rule"
	"github.com/cilium/streamtok/pkg/tokenizer"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "rulefile")

var (
	// ErrNoRuleSet is returned for files without rule set
	ErrNoRuleSet = errors.New("no rule set declared")
	// ErrInvalidRuleSet is returned for rule sets with missing or duplicate names
	ErrInvalidRuleSet = errors.New("invalid rule set")
	// ErrUndefinedNext is returned for next options naming undeclared rule sets
	ErrUndefinedNext = errors.New("next rule set is not declared")
	// ErrInvalidEscape is returned for escape options longer than a byte
	ErrInvalidEscape = errors.New("escape must be a single byte or empty")
)

// Options overrides rule options. Unset fields keep the value they inherit.
type Options struct {
	TrimLeft  *bool   `json:"trimLeft,omitempty"`
	TrimRight *bool   `json:"trimRight,omitempty"`
	Ignore    *bool   `json:"ignore,omitempty"`
	Quiet     *bool   `json:"quiet,omitempty"`
	Escape    *string `json:"escape,omitempty"`
	Continue  *int    `json:"continue,omitempty"`
	Break     *bool   `json:"break,omitempty"`
	Next      *string `json:"next,omitempty"`
	NextIndex *int    `json:"nextIndex,omitempty"`
}

// Rule is the declaration of a single rule.
type Rule struct {
	// Type is the rule type, a string or an integer.
	Type     any      `json:"type"`
	Patterns []any    `json:"patterns,omitempty"`
	Options  *Options `json:"options,omitempty"`
}

// RuleSet is a named list of rules.
type RuleSet struct {
	Name    string   `json:"name"`
	Options *Options `json:"options,omitempty"`
	Rules   []Rule   `json:"rules"`
}

// File is a rule file.
type File struct {
	// Options apply to all rules of the file.
	Options  *Options  `json:"options,omitempty"`
	RuleSets []RuleSet `json:"ruleSets"`
	// Start is the name of the initial rule set.
	Start string `json:"start,omitempty"`
}

// Load reads and parses the rule file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read rule file %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid rule file %s", path)
	}
	log.WithField(logfields.Path, path).Debug("Loaded rule file")
	return f, nil
}

// Parse decodes and validates a YAML or JSON rule file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, errors.Wrap(err, "unable to decode rule file")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks rule set names and next references.
func (f *File) Validate() error {
	if len(f.RuleSets) == 0 {
		return ErrNoRuleSet
	}

	names := lo.Map(f.RuleSets, func(s RuleSet, _ int) string { return s.Name })
	if lo.Contains(names, "") {
		return errors.Wrap(ErrInvalidRuleSet, "missing name")
	}
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return errors.Wrapf(ErrInvalidRuleSet, "duplicate names %v", dups)
	}
	if f.Start != "" && !lo.Contains(names, f.Start) {
		return errors.Wrapf(ErrUndefinedNext, "start %q", f.Start)
	}

	check := func(o *Options, where string) error {
		if o == nil {
			return nil
		}
		if o.Next != nil && *o.Next != "" && !lo.Contains(names, *o.Next) {
			return errors.Wrapf(ErrUndefinedNext, "%q in %s", *o.Next, where)
		}
		if o.Escape != nil && len(*o.Escape) > 1 {
			return errors.Wrapf(ErrInvalidEscape, "%q in %s", *o.Escape, where)
		}
		return nil
	}
	if err := check(f.Options, "file options"); err != nil {
		return err
	}
	for _, s := range f.RuleSets {
		if err := check(s.Options, "rule set "+s.Name); err != nil {
			return err
		}
		for i, r := range s.Rules {
			if err := check(r.Options, fmt.Sprintf("rule set %s rule %d", s.Name, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build returns an engine declaring the rules of the file. Rule options
// default to cfg.Options, then to rule.DefaultOptions().
func (f *File) Build(cfg tokenizer.Config) (*tokenizer.Engine, error) {
	e := tokenizer.New(cfg)
	base := f.Options.apply(e.Options())

	for _, s := range f.RuleSets {
		e.ClearRule()
		setOpts := s.Options.apply(base)
		for i, r := range s.Rules {
			patterns, err := parsePatterns(r.Patterns)
			if err != nil {
				return nil, errors.Wrapf(err, "rule set %s rule %d", s.Name, i)
			}
			e.SetOptions(r.Options.apply(setOpts))
			if err := e.AddRule(normalizeType(r.Type), patterns...); err != nil {
				return nil, errors.Wrapf(err, "rule set %s rule %d", s.Name, i)
			}
		}
		if err := e.SaveRuleSet(s.Name); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			logfields.RuleSet: s.Name,
			logfields.Length:  len(s.Rules),
		}).Debug("Declared rule set")
	}
	e.SetOptions(base)

	start := f.Start
	if start == "" {
		start = f.RuleSets[0].Name
	}
	if err := e.LoadRuleSet(start); err != nil {
		return nil, err
	}
	return e, nil
}

func parsePatterns(values []any) ([]matcher.Pattern, error) {
	patterns := make([]matcher.Pattern, 0, len(values))
	for i, v := range values {
		p, err := matcher.Parse(v)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %d", i)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// normalizeType turns the integral numbers produced by the decoder back into
// integers.
func normalizeType(typ any) any {
	if f, ok := typ.(float64); ok && f == math.Trunc(f) {
		return int(f)
	}
	return typ
}

func (o *Options) apply(opts rule.Options) rule.Options {
	if o == nil {
		return opts
	}
	if o.TrimLeft != nil {
		opts.TrimLeft = *o.TrimLeft
	}
	if o.TrimRight != nil {
		opts.TrimRight = *o.TrimRight
	}
	if o.Ignore != nil {
		opts.Ignore = *o.Ignore
	}
	if o.Quiet != nil {
		opts.Quiet = *o.Quiet
	}
	if o.Escape != nil {
		opts.Escape = 0
		if *o.Escape != "" {
			opts.Escape = (*o.Escape)[0]
		}
	}
	if o.Continue != nil {
		opts.Continue = rule.Jump(*o.Continue)
	}
	if o.Break != nil {
		opts.Break = *o.Break
	}
	if o.Next != nil {
		opts.Next = *o.Next
	}
	if o.NextIndex != nil {
		opts.NextIndex = *o.NextIndex
	}
	return opts
}
