// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"errors"
	"fmt"
	"strings"
)

// File access errors. Resolvers wrap these with the offending path or
// identity, so callers classify them with errors.Is.
var (
	ErrNotFound           = errors.New("file not found")
	ErrIsDirectory        = errors.New("is a directory")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidEncoding    = errors.New("file is not valid utf-8")
	ErrPackageNotFound    = errors.New("package not found")
	ErrInvalidPackageSpec = errors.New("invalid package spec")
)

// Session and export errors.
var (
	ErrNoDocument        = errors.New("no compiled document")
	ErrNoPage            = errors.New("page does not exist")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrPDFExport         = errors.New("pdf export failed")
	ErrPNGExport         = errors.New("png export failed")
	ErrSVGExport         = errors.New("svg export failed")
)

// CompilationError carries the diagnostics of a failed compilation. Warnings
// come first, followed by errors, in the order the compiler reported them.
type CompilationError struct {
	Diagnostics []Diagnostic
}

func (e *CompilationError) Error() string {
	var errs []string
	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d.Message)
		}
	}
	switch len(errs) {
	case 0:
		return "compilation failed"
	case 1:
		return "compilation failed: " + errs[0]
	default:
		return fmt.Sprintf("compilation failed with %d errors: %s", len(errs), strings.Join(errs, "; "))
	}
}
