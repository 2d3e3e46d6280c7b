// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report formats compiler diagnostics for terminals and logs.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/petar-djukic/typhost/pkg/types"
)

const defaultContextLines = 2

// SourceFunc returns the text of the file a diagnostic belongs to.
type SourceFunc func(d types.Diagnostic) (string, bool)

// FormatConfig configures diagnostic formatting.
type FormatConfig struct {
	ContextLines int        // Lines of context above/below each diagnostic (default 2)
	Source       SourceFunc // Source text lookup (default: read Path from disk)
}

// Format renders each diagnostic as "location: severity: message", its
// hints and a numbered window of the surrounding source.
func Format(diags []types.Diagnostic, cfg FormatConfig) string {
	contextLines := cfg.ContextLines
	if contextLines == 0 {
		contextLines = defaultContextLines
	}
	lookup := cfg.Source
	if lookup == nil {
		lookup = readPath
	}

	var buf strings.Builder
	for _, d := range diags {
		buf.WriteString(d.String())
		buf.WriteString("\n")
		for _, h := range d.Hints {
			buf.WriteString(fmt.Sprintf("  hint: %s\n", h))
		}
		if d.Position.IsZero() {
			continue
		}
		if text, ok := lookup(d); ok {
			buf.WriteString(sourceWindow(text, d.Position.Line, contextLines))
		}
	}
	return buf.String()
}

// Summary counts errors and warnings, e.g. "2 errors, 1 warning".
func Summary(diags []types.Diagnostic) string {
	var errs, warns int
	for _, d := range diags {
		if d.Severity == types.SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return plural(errs, "error") + ", " + plural(warns, "warning")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func readPath(d types.Diagnostic) (string, bool) {
	if d.Path == "" {
		return "", false
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// sourceWindow numbers the lines within radius of the 1-based line and
// marks that line with "> ".
func sourceWindow(text string, line, radius int) string {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	var buf strings.Builder
	for n := max(1, line-radius); n <= min(len(lines), line+radius); n++ {
		marker := "  "
		if n == line {
			marker = "> "
		}
		fmt.Fprintf(&buf, "%s%4d │ %s\n", marker, n, strings.TrimRight(lines[n-1], "\r"))
	}
	return buf.String()
}
