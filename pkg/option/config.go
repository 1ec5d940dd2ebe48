// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package option

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cilium/streamtok/pkg/defaults"
	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/rule"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "config")

// CLI flags
const (
	// ConfigFile is the path to an optional configuration file
	ConfigFile = "config"

	// DebugArg is the argument enables debugging mode
	DebugArg = "debug"

	// LogOpt sets log driver options
	LogOpt = "log-opt"

	// RulesFile is the rule file declaring the tokenizer rules
	RulesFile = "rules"

	// TrimLeft is the default trimLeft option of declared rules
	TrimLeft = "trim-left"

	// TrimRight is the default trimRight option of declared rules
	TrimRight = "trim-right"

	// Escape is the default escape byte of declared rules, empty to disable
	Escape = "escape"

	// ChunkSize is the size of the chunks written to the tokenizer
	ChunkSize = "chunk-size"

	// Output is the format of the emitted tokens
	Output = "output"

	// PrometheusServeAddr is the IP:Port on which to serve prometheus metrics
	PrometheusServeAddr = "prometheus-serve-addr"

	// PrintMetrics dumps the metrics to stderr once the input ended
	PrintMetrics = "print-metrics"
)

// StreamtokConfig is the configuration of the streamtok command.
type StreamtokConfig struct {
	// Debug enables debug logs and rule tracing
	Debug bool

	// LogOpt are the logging driver options
	LogOpt map[string]string

	// RulesFile is the path of the rule file
	RulesFile string

	// TrimLeft, TrimRight and Escape are the rule defaults of rule files
	TrimLeft  bool
	TrimRight bool
	Escape    string

	// ChunkSize is the size of the chunks read from the input
	ChunkSize int

	// Output is the format of emitted tokens
	Output string

	// PrometheusServeAddr is the address serving prometheus metrics, empty
	// to disable
	PrometheusServeAddr string

	// PrintMetrics dumps the metrics once the input ended
	PrintMetrics bool
}

// Config is the global configuration
var Config = DefaultConfig()

// DefaultConfig returns the configuration with every option set to its
// default.
func DefaultConfig() *StreamtokConfig {
	return &StreamtokConfig{
		TrimLeft:  defaults.TrimLeft,
		TrimRight: defaults.TrimRight,
		Escape:    string(defaults.Escape),
		ChunkSize: defaults.ChunkSize,
		Output:    defaults.OutputFormat,
		LogOpt:    make(map[string]string),
	}
}

// Flags registers the options of c, with the values of c as defaults. The
// config file flag is registered by the command owning it.
func (def StreamtokConfig) Flags(flags *pflag.FlagSet) {
	flags.BoolP(DebugArg, "D", def.Debug, "Enable debug messages and rule tracing")

	flags.StringToString(LogOpt, def.LogOpt,
		`Log driver options e.g. "level=debug,format=json"`)

	flags.StringP(RulesFile, "r", def.RulesFile, "Rule file declaring the tokenizer rules")

	flags.Bool(TrimLeft, def.TrimLeft, "Default trimLeft option of declared rules")
	flags.Bool(TrimRight, def.TrimRight, "Default trimRight option of declared rules")
	flags.String(Escape, def.Escape, "Default escape byte of declared rules, empty to disable")

	flags.Int(ChunkSize, def.ChunkSize, "Size of the chunks read from the input")
	flags.StringP(Output, "o", def.Output, "Token output format: text, json or yaml")

	flags.String(PrometheusServeAddr, def.PrometheusServeAddr,
		"IP:Port on which to serve prometheus metrics (pass \":Port\" to bind on all interfaces, \"\" is off)")
	flags.Bool(PrintMetrics, def.PrintMetrics, "Print the metrics to stderr once the input ended")
}

// BindFlags registers the options of c on flags and binds them to vp and to
// their environment variable.
func (def StreamtokConfig) BindFlags(flags *pflag.FlagSet, vp *viper.Viper) {
	def.Flags(flags)
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == ConfigFile {
			return
		}
		vp.BindPFlag(f.Name, f)
		BindEnv(vp, f.Name)
	})
}

// getEnvName returns the environment variable to be used for the given option name.
func getEnvName(option string) string {
	under := strings.Replace(option, "-", "_", -1)
	upper := strings.ToUpper(under)
	return defaults.EnvPrefix + "_" + upper
}

// BindEnv binds the option name with an deterministic generated environment
// variable which s based on the given optName. If the same optName is bound
// more than once, this function panics.
func BindEnv(vp *viper.Viper, optName string) {
	vp.BindEnv(optName, getEnvName(optName))
}

// Populate sets all options with the values from viper
func (c *StreamtokConfig) Populate(vp *viper.Viper) {
	c.Debug = vp.GetBool(DebugArg)
	c.RulesFile = vp.GetString(RulesFile)
	c.TrimLeft = vp.GetBool(TrimLeft)
	c.TrimRight = vp.GetBool(TrimRight)
	c.Escape = vp.GetString(Escape)
	c.ChunkSize = vp.GetInt(ChunkSize)
	c.Output = vp.GetString(Output)
	c.PrometheusServeAddr = vp.GetString(PrometheusServeAddr)
	c.PrintMetrics = vp.GetBool(PrintMetrics)

	if m := vp.GetStringMapString(LogOpt); len(m) != 0 {
		c.LogOpt = m
	}
}

// Validate checks the consistency of the configuration.
func (c *StreamtokConfig) Validate() error {
	if len(c.Escape) > 1 {
		return fmt.Errorf("%s must be a single byte or empty, got %q", Escape, c.Escape)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", ChunkSize, c.ChunkSize)
	}
	return nil
}

// RuleOptions returns the rule defaults of the configuration.
func (c *StreamtokConfig) RuleOptions() rule.Options {
	opts := rule.DefaultOptions()
	opts.TrimLeft = c.TrimLeft
	opts.TrimRight = c.TrimRight
	opts.Escape = 0
	if c.Escape != "" {
		opts.Escape = c.Escape[0]
	}
	return opts
}

// LogRegisteredOptions logs all options that where bound to viper.
func LogRegisteredOptions(vp *viper.Viper) {
	keys := vp.AllKeys()
	for _, k := range keys {
		log.Infof("  --%s='%s'", k, vp.GetString(k))
	}
}
