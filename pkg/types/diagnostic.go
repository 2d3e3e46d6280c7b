// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"fmt"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ByteRange is a half-open byte range [Start, End) within a source text.
type ByteRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DiagnosticPosition locates a diagnostic for display. Lines and columns are
// 1-based; the all-zero value means the location could not be resolved.
type DiagnosticPosition struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine"`
	EndColumn int `json:"endColumn"`
}

// IsZero reports whether the position is unresolved.
func (p DiagnosticPosition) IsZero() bool {
	return p == DiagnosticPosition{}
}

// Diagnostic is a compiler message mapped into editor coordinates.
type Diagnostic struct {
	Severity Severity           `json:"severity"`
	File     string             `json:"file,omitempty"`  // Identity of the owning file; empty when detached
	Path     string             `json:"path,omitempty"`  // Host path of the owning file, when known
	Range    *ByteRange         `json:"range,omitempty"` // Byte range in the owning file; nil when detached
	Position DiagnosticPosition `json:"position"`
	Message  string             `json:"message"`
	Hints    []string           `json:"hints,omitempty"`
}

func (d Diagnostic) String() string {
	loc := d.File
	if d.Path != "" {
		loc = d.Path
	}
	if loc == "" {
		loc = "<detached>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", loc, d.Position.Line, d.Position.Column, d.Severity, d.Message)
}
