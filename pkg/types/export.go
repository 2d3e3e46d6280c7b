// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"fmt"
	"strings"
)

// ExportFormat selects the output encoding of an export.
type ExportFormat int

const (
	FormatPDF ExportFormat = iota
	FormatPNG
	FormatSVG
)

func (f ExportFormat) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatPNG:
		return "png"
	case FormatSVG:
		return "svg"
	default:
		return fmt.Sprintf("ExportFormat(%d)", int(f))
	}
}

// Ext returns the file extension for per-page outputs.
func (f ExportFormat) Ext() string {
	return f.String()
}

// ParseExportFormat maps a case-insensitive format name to a format.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ExportOptions configures multi-page exports. Pages are 0-based and the
// range is inclusive. A negative EndPage means the last page.
type ExportOptions struct {
	StartPage int     `json:"startPage"`
	EndPage   int     `json:"endPage"`
	Merged    bool    `json:"merged"`    // SVG only: one file with all pages stacked
	MergedGap float64 `json:"mergedGap"` // Gap between stacked pages in points
	PNGScale  float64 `json:"pngScale"`  // Pixels per point for PNG (default 3.0)
}

// AllPages returns options that cover the whole document.
func AllPages() ExportOptions {
	return ExportOptions{StartPage: 0, EndPage: -1}
}
