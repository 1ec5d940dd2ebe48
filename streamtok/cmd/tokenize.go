// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cilium/streamtok/pkg/command"
	"github.com/cilium/streamtok/pkg/logging/logfields"
	"github.com/cilium/streamtok/pkg/metrics"
	"github.com/cilium/streamtok/pkg/option"
	"github.com/cilium/streamtok/pkg/rule"
	"github.com/cilium/streamtok/pkg/rulefile"
	"github.com/cilium/streamtok/pkg/tokenizer"
)

const stdinName = "-"

// tokenOutput is the printed form of a token.
type tokenOutput struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
	Type   any    `json:"type,omitempty"`
	Index  int    `json:"index"`
	Size   int    `json:"size"`
	Value  string `json:"value"`
}

func newTokenOutput(tok rule.Token) tokenOutput {
	return tokenOutput{
		File:   tok.Pos.Filename,
		Line:   tok.Pos.Line,
		Column: tok.Pos.Column,
		Offset: tok.Pos.Offset,
		Type:   tok.Type,
		Index:  tok.Index,
		Size:   tok.Size,
		Value:  tok.Value,
	}
}

func (t tokenOutput) String() string {
	pos := fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
	return fmt.Sprintf("%s\t%s\t%s", command.Yellow(pos), command.Cyan(t.Type), strconv.Quote(t.Value))
}

func newCmdTokenize(in io.Reader, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize [FILE]...",
		Short: "Tokenize files or the standard input",
		Long: `Tokenize the given files, or the standard input when none or "-" is
given, with the rules of the rule file and print the emitted tokens.`,
		Example: `  streamtok tokenize -r rules.yaml input.txt
  cat input.txt | streamtok tokenize -r rules.yaml -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenize(cmd.Context(), in, out, args)
		},
	}
}

func runTokenize(ctx context.Context, in io.Reader, out io.Writer, inputs []string) error {
	if option.Config.RulesFile == "" {
		return fmt.Errorf("--%s is required", option.RulesFile)
	}
	rules, err := rulefile.Load(option.Config.RulesFile)
	if err != nil {
		return err
	}
	printer, err := command.NewPrinter(out, option.Config.Output)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		inputs = []string{stdinName}
	}
	for _, name := range inputs {
		if err := tokenizeInput(ctx, rules, printer, in, name); err != nil {
			return err
		}
	}

	if option.Config.PrintMetrics {
		return metrics.Dump(os.Stderr)
	}
	return nil
}

func tokenizeInput(ctx context.Context, rules *rulefile.File, printer *command.Printer, in io.Reader, name string) error {
	r := in
	if name != stdinName {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return tokenize(ctx, rules, printer, r, name)
}

func tokenize(ctx context.Context, rules *rulefile.File, printer *command.Printer, r io.Reader, name string) error {
	scopedLog := log.WithField(logfields.Name, name)

	var printErr error
	observers := tokenizer.MultiObserver{
		tokenizer.ObserverFuncs{Data: func(tok rule.Token) {
			if printErr == nil {
				printErr = printer.Print(newTokenOutput(tok))
			}
		}},
		metrics.Observer{},
	}
	if option.Config.Debug {
		observers = append(observers, tokenizer.NewLogObserver(scopedLog))
	}

	opts := option.Config.RuleOptions()
	engine, err := rules.Build(tokenizer.Config{
		Name:     name,
		Debug:    option.Config.Debug,
		Observer: observers,
		Options:  &opts,
	})
	if err != nil {
		return err
	}

	buf := make([]byte, option.Config.ChunkSize)
	if _, err := io.CopyBuffer(&stallWriter{e: engine}, &contextReader{ctx: ctx, r: r}, buf); err != nil {
		return errors.Wrapf(err, "unable to tokenize %s", name)
	}
	if err := engine.End(nil); err != nil {
		return err
	}
	if printErr != nil {
		return printErr
	}

	if rest := engine.Len(); rest > 0 {
		scopedLog.WithFields(logrus.Fields{
			logfields.RuleSet: engine.RuleSet(),
			logfields.Length:  rest,
		}).Warning("Input ended with data no rule matched")
	}
	return nil
}

// contextReader fails reads once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// stallWriter fails writes once no rule of the engine can match anymore.
type stallWriter struct {
	e *tokenizer.Engine
}

func (s *stallWriter) Write(p []byte) (int, error) {
	n, err := s.e.Write(p)
	if err == nil && s.e.Stalled() {
		err = errors.Errorf("no rule of %s can match at %s", s.e.RuleSet(), s.e.Position())
	}
	return n, err
}
