// Copyright 2024 The Ksck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/bigbytest/kudu/pkg/ksck"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// reporter renders per-check outcomes and findings to a writer, with color
// when the writer is a terminal.
type reporter struct {
	w        io.Writer
	colorize bool
}

func newReporter(w io.Writer) *reporter {
	colorize := false
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd())
	}
	return &reporter{w: w, colorize: colorize}
}

func (r *reporter) ok() string {
	if r.colorize {
		return color.GreenString("OK")
	}
	return "OK"
}

func (r *reporter) fail() string {
	if r.colorize {
		return color.RedString("FAIL")
	}
	return "FAIL"
}

// step reports the outcome of one check: FAIL if it could not run or
// produced findings, OK otherwise. Findings, if any, are rendered as a
// table below the status line.
func (r *reporter) step(name string, findings []ksck.Finding, err error) {
	status := r.ok()
	if err != nil || len(findings) > 0 {
		status = r.fail()
	}
	fmt.Fprintf(r.w, "%-40s %s\n", name, status)
	if err != nil {
		fmt.Fprintf(r.w, "  error: %s\n", err)
	}
	if len(findings) > 0 {
		r.printFindings(findings)
	}
}

func (r *reporter) printFindings(findings []ksck.Finding) {
	table := tablewriter.NewWriter(r.w)
	table.SetHeader([]string{"KIND", "TABLE", "TABLET", "SERVER", "DETAIL"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, f := range findings {
		table.Append([]string{f.Kind.String(), f.Table, f.Tablet, f.Server, f.Detail})
	}
	table.Render()
}
