// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package defaults

const (
	// TrimLeft is the default value for option.TrimLeft
	TrimLeft = true

	// TrimRight is the default value for option.TrimRight
	TrimRight = true

	// Escape is the default escape byte of searching patterns
	Escape byte = '\\'

	// RuleSetName is the name reported for a rule set that was never saved
	RuleSetName = "default"

	// ChunkSize is the default size of the chunks read from the input and
	// written to the engine
	ChunkSize = 32 * 1024

	// EnvPrefix is the prefix of the environment variables overriding
	// configuration options
	EnvPrefix = "STREAMTOK"

	// MetricsNamespace is the namespace of all exported metrics
	MetricsNamespace = "streamtok"

	// OutputFormat is the default format of emitted tokens
	OutputFormat = "text"
)
