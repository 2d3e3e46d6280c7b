// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package engine defines the typesetting collaborators that a session
// drives: the compiler, the IDE query primitives, the rasterizer and the
// document encoders, together with the World they read files through.
package engine

import (
	"context"
	"image"
	"time"

	"github.com/petar-djukic/typhost/pkg/source"
	"github.com/petar-djukic/typhost/pkg/types"
)

// World is the view of the project a compiler reads from.
type World interface {
	// Main returns the identity of the entry file.
	Main() types.FileID
	// Source returns the decoded text of a file.
	Source(id types.FileID) (*source.Source, error)
	// File returns the raw bytes of a file.
	File(id types.FileID) ([]byte, error)
	// Today returns the current date. A nil offset means the local time
	// zone, otherwise a fixed UTC offset in hours.
	Today(offset *int) (time.Time, bool)
}

// Frame is the engine specific drawable content of one page.
type Frame interface {
	Size() types.Size
}

// Page is one laid out page of a document.
type Page struct {
	Frame  Frame
	Number int // 1-based page number
}

// Info is document metadata used by encoders.
type Info struct {
	Title  string
	Author []string
}

// Document is a compiled, laid out document.
type Document struct {
	Pages []Page
	Info  Info
}

// Span locates a diagnostic in a source file. A detached span has no file.
type Span struct {
	File     types.FileID
	Start    int
	End      int
	Detached bool
}

// SourceDiagnostic is a diagnostic as reported by the compiler, in byte
// offsets.
type SourceDiagnostic struct {
	Severity types.Severity
	Span     Span
	Message  string
	Hints    []string
}

// CompileResult is the outcome of one compilation. Document is nil iff the
// compilation failed, in which case Errors is non-empty.
type CompileResult struct {
	Document *Document
	Errors   []SourceDiagnostic
	Warnings []SourceDiagnostic
}

// Compiler typesets the World's main file.
type Compiler interface {
	Compile(ctx context.Context, w World) CompileResult
}

// Position is a point on a page.
type Position struct {
	Page  int // 1-based page number
	Point types.Point
}

// JumpKind discriminates Jump.
type JumpKind int

const (
	JumpFile JumpKind = iota
	JumpPosition
	JumpURL
)

// Jump is where a click in the document leads.
type Jump struct {
	Kind     JumpKind
	File     types.FileID // JumpFile
	Offset   int          // JumpFile: byte offset into File
	Position Position     // JumpPosition
	URL      string       // JumpURL
}

// Tooltip and Completion are shared with the host-facing types.
type (
	Tooltip    = types.Tooltip
	Completion = types.Completion
)

// Side selects which character the cursor attaches to for hover queries.
type Side int

const (
	SideBefore Side = iota
	SideAfter
)

// IDE provides the source navigation primitives of the engine. Offsets are
// bytes.
type IDE interface {
	// JumpFromCursor returns the document positions produced by the source
	// text at cursor, in document order.
	JumpFromCursor(doc *Document, src *source.Source, cursor int) []Position
	// JumpFromClick resolves a click on a frame, in points.
	JumpFromClick(w World, doc *Document, frame Frame, click types.Point) (Jump, bool)
	// Autocomplete returns the byte offset where completion starts and the
	// candidates.
	Autocomplete(w World, doc *Document, src *source.Source, cursor int, explicit bool) (int, []Completion, bool)
	// Tooltip describes the element at cursor.
	Tooltip(w World, doc *Document, src *source.Source, cursor int, side Side) (Tooltip, bool)
}

// Rasterizer draws a page into a bitmap at the given pixels per point.
type Rasterizer interface {
	Rasterize(page Page, scale float64) image.Image
}

// PDFOptions configures PDF encoding.
type PDFOptions struct {
	// Timestamp is the creation date to embed. It carries the local zone
	// offset and is truncated to the minute.
	Timestamp time.Time
}

// Exporter encodes documents.
type Exporter interface {
	PDF(doc *Document, opts PDFOptions) ([]byte, error)
	SVG(page Page) []byte
	SVGMerged(doc *Document, gap float64) []byte
}

// Engine bundles every collaborator a session needs.
type Engine interface {
	Compiler
	IDE
	Rasterizer
	Exporter
}
