// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package command

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

type sampleData struct {
	ID   int
	Name string
}

func TestDumpJSON(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatJSON)
	require.NoError(t, err)

	require.NoError(t, p.Print(sampleData{ID: 1, Name: "test"}))
	require.NoError(t, p.Print(sampleData{ID: 2, Name: "other"}))
	require.Equal(t, "{\"ID\":1,\"Name\":\"test\"}\n{\"ID\":2,\"Name\":\"other\"}\n", buf.String())

	err = p.Print(func() {})
	require.Error(t, err)
}

func TestDumpYAML(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, FormatYAML)
	require.NoError(t, err)

	require.NoError(t, p.Print(sampleData{ID: 1, Name: "test"}))
	require.NoError(t, p.Print(sampleData{ID: 2, Name: "other"}))
	require.Equal(t, "ID: 1\nName: test\n---\nID: 2\nName: other\n", buf.String())
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, "")
	require.NoError(t, err)
	require.Equal(t, FormatText, p.Format())

	require.NoError(t, p.Print("abc"))
	require.NoError(t, p.Print(3))
	require.Equal(t, "abc\n3\n", buf.String())

	_, err = NewPrinter(&buf, "xml")
	require.Error(t, err)
}

func TestOutputOption(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddOutputOption(cmd)
	require.False(t, OutputOption())

	require.NoError(t, cmd.Flags().Set("output", "yaml"))
	require.True(t, OutputOption())

	ForceJSON()
	require.True(t, OutputOption())
	outputOpt = ""
}

func TestColors(t *testing.T) {
	noColor := color.NoColor
	defer func() { color.NoColor = noColor }()

	color.NoColor = true
	require.Equal(t, "word", Cyan("word"))

	color.NoColor = false
	require.Equal(t, "\x1b[33m1:1\x1b[0m", Yellow("1:1"))
}
