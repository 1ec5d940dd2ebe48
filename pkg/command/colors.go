// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package command

import (
	"github.com/fatih/color"
)

// Color helpers of the text format. Colors are disabled when the standard
// output is not a terminal.
var (
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
)
