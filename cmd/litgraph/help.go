package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/ui"
)

var (
	// Unindented lines ending in ":" other than "Usage:".
	reSection = regexp.MustCompile(`(?m)^([A-Z][^\n]*:)\s*$`)
	// Two-space indent, a command name, then at least two spaces.
	reCommandName = regexp.MustCompile(`(?m)^(  )(\S+)(  )`)
	// Flag type annotations such as "--server string".
	reFlagKind = regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringArray|strings)\b`)
	reDefault  = regexp.MustCompile(`\(default "?[^)"]*"?\)`)
)

// colorizedHelpFunc styles Cobra's usage text when the terminal supports
// color and falls back to the plain text otherwise.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if noColor || !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	s = reSection.ReplaceAllStringFunc(s, func(m string) string {
		if strings.HasPrefix(m, "Usage:") {
			return m
		}
		return ui.RenderAccent(strings.TrimSpace(m))
	})
	s = reCommandName.ReplaceAllStringFunc(s, func(m string) string {
		p := reCommandName.FindStringSubmatch(m)
		return p[1] + ui.RenderCommand(p[2]) + p[3]
	})
	s = reFlagKind.ReplaceAllStringFunc(s, func(m string) string {
		p := reFlagKind.FindStringSubmatch(m)
		return p[1] + ui.RenderMuted(p[2])
	})
	return reDefault.ReplaceAllStringFunc(s, ui.RenderMuted)
}
