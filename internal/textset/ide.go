// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textset

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/petar-djukic/typhost/internal/position"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/source"
	"github.com/petar-djukic/typhost/pkg/types"
)

// JumpFromCursor returns the top-left corner of the character at cursor in
// every line produced from that source position.
func (e *Engine) JumpFromCursor(doc *engine.Document, src *source.Source, cursor int) []engine.Position {
	if doc == nil || src == nil {
		return nil
	}
	text := src.Text()
	var out []engine.Position
	for _, p := range doc.Pages {
		for _, it := range frameOf(p.Frame).Items {
			sp := it.Span
			if sp.Detached || sp.File != src.ID() || cursor < sp.Start || cursor > sp.End || sp.End > len(text) {
				continue
			}
			col := 0
			if it.Literal {
				col = utf8.RuneCountInString(text[sp.Start:cursor])
			}
			out = append(out, engine.Position{
				Page:  p.Number,
				Point: types.Point{X: it.Pos.X + float64(col)*CharWidth, Y: it.Pos.Y - FontSize},
			})
		}
	}
	return out
}

// JumpFromClick resolves a click in points on a page. Links jump to their
// destination; other lines jump to the source character under the click.
func (e *Engine) JumpFromClick(_ engine.World, _ *engine.Document, frame engine.Frame, click types.Point) (engine.Jump, bool) {
	for _, it := range frameOf(frame).Items {
		if !it.Contains(click) {
			continue
		}
		if it.Link != nil {
			if it.Link.URL != "" {
				return engine.Jump{Kind: engine.JumpURL, URL: it.Link.URL}, true
			}
			return engine.Jump{
				Kind:     engine.JumpPosition,
				Position: engine.Position{Page: it.Link.Page, Point: types.Point{X: Margin, Y: Margin}},
			}, true
		}
		if it.Span.Detached {
			continue
		}
		off := it.Span.Start
		if it.Literal {
			off += position.CharToByte(it.Text, it.Column(click.X))
		}
		return engine.Jump{Kind: engine.JumpFile, File: it.Span.File, Offset: off}, true
	}
	return engine.Jump{}, false
}

// Autocomplete completes function names after '#'. An explicit request
// outside a call offers every function.
func (e *Engine) Autocomplete(_ engine.World, _ *engine.Document, src *source.Source, cursor int, explicit bool) (int, []engine.Completion, bool) {
	if src == nil {
		return 0, nil, false
	}
	text := src.Text()
	if cursor < 0 || cursor > len(text) {
		return 0, nil, false
	}
	start := cursor
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	hash := start > 0 && text[start-1] == '#'
	if !hash && !explicit {
		return 0, nil, false
	}
	prefix := text[start:cursor]
	var out []engine.Completion
	for _, fn := range functions {
		if !strings.HasPrefix(fn.name, prefix) {
			continue
		}
		apply := fn.apply
		if !hash {
			apply = "#" + apply
		}
		out = append(out, engine.Completion{Kind: "function", Label: fn.name, Apply: apply, Detail: fn.doc})
	}
	return start, out, len(out) > 0
}

// Tooltip describes the function name or include path under the cursor.
func (e *Engine) Tooltip(w engine.World, _ *engine.Document, src *source.Source, cursor int, side engine.Side) (engine.Tooltip, bool) {
	if src == nil {
		return engine.Tooltip{}, false
	}
	text := src.Text()
	if cursor < 0 || cursor > len(text) {
		return engine.Tooltip{}, false
	}
	at := cursor
	if side == engine.SideBefore && at > 0 {
		at--
	}

	start, end := at, at
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	if start < end && start > 0 && text[start-1] == '#' {
		if fn, ok := lookupFunction(text[start:end]); ok {
			return engine.Tooltip{Kind: types.TooltipCode, Text: fn.signature + "\n" + fn.doc}, true
		}
	}

	// Inside the path of an include line: name the file it resolves to.
	lineNo, ok := src.ByteToLine(at)
	if !ok || w == nil {
		return engine.Tooltip{}, false
	}
	ln, _ := src.Line(lineNo)
	lineStart, _ := src.LineToByte(lineNo)
	trimmed := strings.TrimLeft(ln, " \t")
	rest, ok := strings.CutPrefix(trimmed, "#include")
	if !ok {
		return engine.Tooltip{}, false
	}
	litAt := lineStart + len(ln) - len(rest)
	lit := strings.TrimSpace(rest)
	litAt += strings.Index(rest, lit)
	if at < litAt || at > litAt+len(lit) {
		return engine.Tooltip{}, false
	}
	p, err := strconv.Unquote(lit)
	if err != nil {
		return engine.Tooltip{}, false
	}
	target, err := resolveInclude(w, src.ID(), p)
	if err != nil {
		return engine.Tooltip{Kind: types.TooltipText, Text: err.Error()}, true
	}
	return engine.Tooltip{Kind: types.TooltipText, Text: "Includes " + target.String()}, true
}
