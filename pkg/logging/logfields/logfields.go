// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

// Package logfields defines common logging fields which are used across packages
package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Name is the name of the tokenizer instance, usually the input file
	Name = "name"

	// RuleSet is the name of a rule set
	RuleSet = "ruleSet"

	// Rule is the identity (type or handler) of a rule
	Rule = "rule"

	// RuleIndex is the position of a rule inside its rule set
	RuleIndex = "ruleIndex"

	// Offset is the cursor position inside the tokenizer buffer
	Offset = "offset"

	// Length is a number of bytes
	Length = "length"

	// Index is the index of the matched alternative of a pattern
	Index = "index"

	// Token is the extracted token
	Token = "token"

	// Event is the name of a traced event
	Event = "event"

	// Path is a filesystem path
	Path = "path"

	// Command is an r2d2 protocol command
	Command = "cmd"

	// File is an r2d2 protocol file argument
	File = "file"

	// Verdict is the outcome of a policy decision
	Verdict = "verdict"
)
