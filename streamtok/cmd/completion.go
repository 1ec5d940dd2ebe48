// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

const copyRightHeader = `
# SPDX-License-Identifier: Apache-2.0
# Copyright Authors of Cilium
`

var (
	completionExample = `
# Installing bash completion on Linux
## Load the streamtok completion code for bash into the current shell
	source <(streamtok completion bash)
## Write bash completion code to a file and source if from .bash_profile
	streamtok completion bash > ~/.streamtok/completion.bash.inc
	printf "
	  # streamtok shell completion
	  source '$HOME/.streamtok/completion.bash.inc'
	  " >> $HOME/.bash_profile
	source $HOME/.bash_profile

# Load the streamtok completion code for zsh into the current shell
	source <(streamtok completion zsh)`
)

func newCmdCompletion(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "completion [bash|zsh|fish]",
		Short:   "Output shell completion code",
		Long:    ``,
		Example: completionExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(out, cmd, args)
		},
		ValidArgs: []string{"bash", "zsh", "fish"},
	}

	return cmd
}

func runCompletion(out io.Writer, cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("Too many arguments. Expected only the shell type.")
	}
	if _, err := out.Write([]byte(copyRightHeader)); err != nil {
		return err
	}

	shell := "bash"
	if len(args) == 1 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		return cmd.Root().GenBashCompletion(out)
	case "zsh":
		return cmd.Root().GenZshCompletion(out)
	case "fish":
		return cmd.Root().GenFishCompletion(out, true)
	}
	return fmt.Errorf("unsupported shell type %q", shell)
}
