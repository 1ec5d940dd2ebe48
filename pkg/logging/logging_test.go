// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package logging

import (
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	opts := LogOptions{}

	// case doesn't matter with log options
	opts[LevelOpt] = "DeBuG"
	require.Equal(t, logrus.DebugLevel, opts.GetLogLevel())

	opts[LevelOpt] = "Invalid"
	require.Equal(t, DefaultLogLevel, opts.GetLogLevel())
}

func TestGetLogFormat(t *testing.T) {
	opts := LogOptions{}

	// case doesn't matter with log options
	opts[FormatOpt] = "JsOn"
	require.Equal(t, LogFormatJSON, opts.GetLogFormat())

	opts[FormatOpt] = "Invalid"
	require.Equal(t, DefaultLogFormat, opts.GetLogFormat())
}

func TestSetLogLevel(t *testing.T) {
	oldLevel := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(oldLevel)

	SetLogLevel(logrus.TraceLevel)
	require.Equal(t, logrus.TraceLevel, DefaultLogger.GetLevel())

	SetDefaultLogLevel()
	require.Equal(t, DefaultLogLevel, DefaultLogger.GetLevel())
}

func TestToggleDebugLogs(t *testing.T) {
	oldLevel := DefaultLogger.GetLevel()
	defer DefaultLogger.SetLevel(oldLevel)

	ToggleDebugLogs(true)
	require.Equal(t, logrus.DebugLevel, DefaultLogger.GetLevel())
	ToggleDebugLogs(false)
	require.Equal(t, DefaultLogLevel, DefaultLogger.GetLevel())
}

func TestSetLogFormat(t *testing.T) {
	oldFormatter := DefaultLogger.Formatter
	defer DefaultLogger.SetFormatter(oldFormatter)

	SetLogFormat(LogFormatJSON)
	require.Equal(t, "*logrus.JSONFormatter", reflect.TypeOf(DefaultLogger.Formatter).String())

	SetDefaultLogFormat()
	require.Equal(t, "*logrus.TextFormatter", reflect.TypeOf(DefaultLogger.Formatter).String())
}

func TestSetupLogging(t *testing.T) {
	oldLevel := DefaultLogger.GetLevel()
	oldFormatter := DefaultLogger.Formatter
	defer func() {
		DefaultLogger.SetLevel(oldLevel)
		DefaultLogger.SetFormatter(oldFormatter)
	}()

	// Validates that we configure the DefaultLogger correctly
	logOpts := LogOptions{
		"format": "json",
		"level":  "error",
	}

	require.NoError(t, SetupLogging(logOpts, false))
	require.Equal(t, logrus.ErrorLevel, DefaultLogger.GetLevel())
	require.Equal(t, "*logrus.JSONFormatter", reflect.TypeOf(DefaultLogger.Formatter).String())

	// Validate that the 'debug' flag/arg overrides the logOptions
	require.NoError(t, SetupLogging(logOpts, true))
	require.Equal(t, logrus.DebugLevel, DefaultLogger.GetLevel())

	require.Error(t, SetupLogging(LogOptions{"syslog.level": "info"}, false))
}
