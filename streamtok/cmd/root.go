// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cilium/streamtok/pkg/defaults"
	"github.com/cilium/streamtok/pkg/logging"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/metrics"
	"github.com/cilium/streamtok/pkg/option"
)

var log = logging.DefaultLogger.WithField(logfields.LogSubsys, "streamtok")

var hookOnce sync.Once

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd(viper.GetViper(), os.Stdin, os.Stdout)

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		Fatalf("%s", err)
	}
}

func newRootCmd(vp *viper.Viper, in io.Reader, out io.Writer) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "streamtok",
		Short: "Streaming rule driven tokenizer",
		Long:  `Tokenize text streams with the rules declared in a rule file`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(vp, cfgFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, option.ConfigFile, "", "config file (default is $HOME/.streamtok.yaml)")
	option.DefaultConfig().BindFlags(flags, vp)

	cmd.AddCommand(newCmdTokenize(in, out))
	cmd.AddCommand(newCmdCompletion(out))
	cmd.SetOut(out)
	cmd.SetErr(os.Stderr)
	return cmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig(vp *viper.Viper, cfgFile string) error {
	if cfgFile != "" { // enable ability to specify config file via flag
		vp.SetConfigFile(cfgFile)
	} else {
		vp.SetConfigName(".streamtok") // name of config file (without extension)
		vp.AddConfigPath("$HOME")      // adding home directory as first search path
	}

	vp.SetEnvPrefix(defaults.EnvPrefix)
	vp.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := vp.ReadInConfig(); err == nil {
		log.WithField(logfields.Path, vp.ConfigFileUsed()).Info("Using config file")
	} else if cfgFile != "" {
		return fmt.Errorf("unable to read config file %s: %w", cfgFile, err)
	}

	option.Config.Populate(vp)
	if err := logging.SetupLogging(option.Config.LogOpt, option.Config.Debug); err != nil {
		return err
	}
	hookOnce.Do(func() {
		logging.DefaultLogger.AddHook(metrics.NewLoggingHook())
	})
	if option.Config.Debug {
		option.LogRegisteredOptions(vp)
	}

	if err := option.Config.Validate(); err != nil {
		return err
	}

	if addr := option.Config.PrometheusServeAddr; addr != "" {
		if err := metrics.Enable(addr); err != nil {
			return fmt.Errorf("unable to serve metrics on %s: %w", addr, err)
		}
	}
	return nil
}
