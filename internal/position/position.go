// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package position converts between editor coordinates (character offsets,
// pixels, 1-based line/column) and engine coordinates (byte offsets,
// points, 0-based lines).
package position

import (
	"github.com/petar-djukic/typhost/pkg/source"
	"github.com/petar-djukic/typhost/pkg/types"
)

// CharToByte returns the byte index at which the n-th character of text
// starts, or len(text) when text has n or fewer characters.
func CharToByte(text string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i := range text {
		if count == n {
			return i
		}
		count++
	}
	return len(text)
}

// ByteToChar returns the number of characters that start strictly before
// the byte offset b.
func ByteToChar(text string, b int) int {
	count := 0
	for i := range text {
		if i >= b {
			break
		}
		count++
	}
	return count
}

// PixelToPoint converts a preview pixel coordinate to points.
func PixelToPoint(px, scale float64) float64 {
	if scale == 0 {
		return px
	}
	return px / scale
}

// PointToPixel converts points to preview pixels.
func PointToPixel(pt, scale float64) float64 {
	return pt * scale
}

// Diagnostic returns the 1-based display position of the byte range r in
// src. When src could not be loaded (srcErr != nil) or the range is absent
// the zero position is returned. Offsets that fall outside the text map to
// line 1 or column 1 rather than failing.
func Diagnostic(src *source.Source, srcErr error, r *types.ByteRange) types.DiagnosticPosition {
	if srcErr != nil || src == nil || r == nil {
		return types.DiagnosticPosition{}
	}
	line := func(b int) int {
		l, _ := src.ByteToLine(b)
		return l + 1
	}
	column := func(b int) int {
		c, _ := src.ByteToColumn(b)
		return c + 1
	}
	return types.DiagnosticPosition{
		Line:      line(r.Start),
		Column:    column(r.Start),
		EndLine:   line(r.End),
		EndColumn: column(r.End),
	}
}
