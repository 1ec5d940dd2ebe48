// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package r2d2

import (
	"regexp"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/cilium/streamtok/pkg/logging/logfields"
)

// Commands of the protocol.
const (
	CmdRead  = "READ"
	CmdWrite = "WRITE"
	CmdHalt  = "HALT"
	CmdReset = "RESET"
)

var (
	// ErrUnsupportedKey is returned for rule keys other than cmd and file
	ErrUnsupportedKey = errors.New("unsupported key")
	// ErrInvalidCommand is returned for rules naming an unknown command
	ErrInvalidCommand = errors.New("invalid cmd")
	// ErrFileNotAllowed is returned for file rules on commands without file
	ErrFileNotAllowed = errors.New("cmd is not compatible with file")
)

// Request is a parsed r2d2 request.
type Request struct {
	Cmd  string
	File string
}

// Rule allows requests.
//
// {cmd : "READ"}  - Allow all reads, no other commands.
// {cmd : "READ", file : "/public/.*" }  - Allow reads that are in the public directory
// {file : "/public/.*" } - Allow read/write on the public directory.
// {cmd : "HALT"} - Allow shutdown, but no other actions.
type Rule struct {
	cmdExact          string
	fileRegexCompiled *regexp.Regexp
}

// ParseRule parses a rule from its key/value form.
func ParseRule(fields map[string]string) (*Rule, error) {
	var rr Rule
	for k, v := range fields {
		switch k {
		case "cmd":
			rr.cmdExact = v
		case "file":
			if v != "" {
				re, err := regexp.Compile(v)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid file regex %q", v)
				}
				rr.fileRegexCompiled = re
			}
		default:
			return nil, errors.Wrapf(ErrUnsupportedKey, "%q", k)
		}
	}
	if rr.cmdExact != "" && !lo.Contains([]string{CmdRead, CmdWrite, CmdHalt, CmdReset}, rr.cmdExact) {
		return nil, errors.Wrapf(ErrInvalidCommand, "%q", rr.cmdExact)
	}
	if rr.fileRegexCompiled != nil && !(rr.cmdExact == "" || rr.cmdExact == CmdRead || rr.cmdExact == CmdWrite) {
		return nil, errors.Wrapf(ErrFileNotAllowed, "%q", rr.cmdExact)
	}
	log.WithFields(logrus.Fields{
		logfields.Command: rr.cmdExact,
		logfields.File:    rr.fileRegex(),
	}).Debug("Parsed rule")
	return &rr, nil
}

func (rule *Rule) fileRegex() string {
	if rule.fileRegexCompiled == nil {
		return ""
	}
	return rule.fileRegexCompiled.String()
}

// Matches returns true if rule allows req.
func (rule *Rule) Matches(req Request) bool {
	if len(rule.cmdExact) > 0 && rule.cmdExact != req.Cmd {
		log.Debugf("Rule: cmd mismatch %s, %s", rule.cmdExact, req.Cmd)
		return false
	}
	if rule.fileRegexCompiled != nil && !rule.fileRegexCompiled.MatchString(req.File) {
		log.Debugf("Rule: file mismatch %s, %s", rule.fileRegex(), req.File)
		return false
	}
	log.Debugf("policy match for rule: '%s' '%s'", rule.cmdExact, rule.fileRegex())
	return true
}

// Policy is a set of rules. A nil policy allows everything, an empty one
// nothing.
type Policy []*Rule

// ParsePolicy parses every rule of rules.
func ParsePolicy(rules []map[string]string) (Policy, error) {
	policy := make(Policy, 0, len(rules))
	for i, fields := range rules {
		rr, err := ParseRule(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d", i)
		}
		policy = append(policy, rr)
	}
	return policy, nil
}

// Matches returns true if any rule of p allows req.
func (p Policy) Matches(req Request) bool {
	if p == nil {
		return true
	}
	return lo.ContainsBy(p, func(rule *Rule) bool { return rule.Matches(req) })
}
