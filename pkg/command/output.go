// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

const (
	// FormatText prints values with their default format, one per line
	FormatText = "text"
	// FormatJSON prints values as JSON objects, one per line
	FormatJSON = "json"
	// FormatYAML prints values as YAML documents
	FormatYAML = "yaml"
)

var outputOpt string

// OutputOption returns true if an output option was specified.
func OutputOption() bool {
	return len(outputOpt) > 0
}

// AddOutputOption adds the -o|--output option to any cmd to export to json or yaml.
func AddOutputOption(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputOpt, "output", "o", "", "json| yaml")
}

// ForceJSON sets output mode to JSON (for unit tests)
func ForceJSON() {
	outputOpt = FormatJSON
}

// PrintOutput receives an interface and dump the data using the --output flag.
// ATM only json or yaml
func PrintOutput(data interface{}) error {
	return PrintOutputWithType(data, outputOpt)
}

// PrintOutputWithType receives an interface and dump the data using the
// outputType format to stdout.
func PrintOutputWithType(data interface{}, outputType string) error {
	p, err := NewPrinter(os.Stdout, outputType)
	if err != nil {
		return err
	}
	return p.Print(data)
}

// Printer writes values to a writer in one of the supported formats.
type Printer struct {
	w      io.Writer
	format string
	count  int
}

// NewPrinter returns a printer writing to w. An empty format is FormatText.
func NewPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("couldn't find output printer %q", format)
	}
	return &Printer{w: w, format: format}, nil
}

// Format returns the format of the printer.
func (p *Printer) Format() string {
	return p.format
}

// Print writes data to the printer writer.
func (p *Printer) Print(data interface{}) error {
	var err error
	switch p.format {
	case FormatJSON:
		err = dumpJSON(p.w, data)
	case FormatYAML:
		if p.count > 0 {
			if _, err = io.WriteString(p.w, "---\n"); err != nil {
				break
			}
		}
		err = dumpYAML(p.w, data)
	default:
		_, err = fmt.Fprintln(p.w, data)
	}
	p.count++
	return err
}

func dumpJSON(w io.Writer, data interface{}) error {
	result, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "couldn't marshal to json")
	}
	result = append(result, '\n')
	_, err = w.Write(result)
	return err
}

func dumpYAML(w io.Writer, data interface{}) error {
	result, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "couldn't marshal to yaml")
	}
	_, err = w.Write(result)
	return err
}
