// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textset

import (
	"math"
	"unicode/utf8"

	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/types"
)

// Page geometry in points. Text is set in a monospace face whose advance is
// 0.6em, which matches the PDF Courier metrics.
const (
	PageWidth  = 595.0
	PageHeight = 842.0
	Margin     = 56.0
	FontSize   = 11.0
	LineHeight = 14.0
	CharWidth  = FontSize * 0.6
)

var (
	linesPerPage = int(math.Floor((PageHeight - 2*Margin) / LineHeight))
	maxColumns   = int(math.Floor((PageWidth - 2*Margin) / CharWidth))
)

// Link is the target of a linked line: an external URL or a 1-based page.
type Link struct {
	URL  string
	Page int
}

// Item is one line of set text.
type Item struct {
	Text    string
	Pos     types.Point // Left end of the baseline
	Span    engine.Span // Source range that produced the line
	Literal bool        // Text is exactly the source text of Span
	Heading bool
	Link    *Link
}

// Width returns the advance width of the item.
func (it Item) Width() float64 {
	return float64(utf8.RuneCountInString(it.Text)) * CharWidth
}

// Contains reports whether p lies in the item's line box. Boxes of
// consecutive lines share an edge, which belongs to the lower line.
func (it Item) Contains(p types.Point) bool {
	const eps = 1e-6
	top := it.Pos.Y - FontSize
	return p.X >= it.Pos.X-eps && p.X <= it.Pos.X+it.Width()+eps &&
		p.Y >= top-eps && p.Y < top+LineHeight-eps
}

// Column returns the character column under x.
func (it Item) Column(x float64) int {
	col := int(math.Floor((x-it.Pos.X)/CharWidth + 1e-6))
	if col < 0 {
		return 0
	}
	if n := utf8.RuneCountInString(it.Text); col > n {
		return n
	}
	return col
}

// Frame is the content of one page.
type Frame struct {
	Items []Item
}

var _ engine.Frame = (*Frame)(nil)

// Size returns the page size.
func (f *Frame) Size() types.Size {
	return types.Size{Width: PageWidth, Height: PageHeight}
}

// line is a laid out line before pagination.
type line struct {
	item      Item
	pageBreak bool
}

// paginate distributes lines over pages. A page break starts a new page
// unless the current one is still empty.
func paginate(lines []line) *engine.Document {
	doc := &engine.Document{}
	var cur *Frame
	row := 0
	newPage := func() {
		cur = &Frame{}
		doc.Pages = append(doc.Pages, engine.Page{Frame: cur, Number: len(doc.Pages) + 1})
		row = 0
	}
	newPage()
	for _, l := range lines {
		if l.pageBreak {
			if row > 0 {
				newPage()
			}
			continue
		}
		if row == linesPerPage {
			newPage()
		}
		it := l.item
		it.Pos = types.Point{X: Margin, Y: Margin + float64(row)*LineHeight + FontSize}
		cur.Items = append(cur.Items, it)
		if it.Heading && doc.Info.Title == "" {
			doc.Info.Title = it.Text
		}
		row++
	}
	return doc
}

// frameOf returns the textset frame of a page, or an empty one for frames
// from other engines.
func frameOf(f engine.Frame) *Frame {
	if tf, ok := f.(*Frame); ok && tf != nil {
		return tf
	}
	return &Frame{}
}
