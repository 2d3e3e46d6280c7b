// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textset

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/petar-djukic/typhost/pkg/engine"
)

// SVG encodes one page.
func (e *Engine) SVG(page engine.Page) []byte {
	f := frameOf(page.Frame)
	size := f.Size()
	var b bytes.Buffer
	svgOpen(&b, size.Width, size.Height)
	writeFrame(&b, f, 0)
	b.WriteString("</svg>\n")
	return b.Bytes()
}

// SVGMerged stacks every page vertically with gap points between pages.
func (e *Engine) SVGMerged(doc *engine.Document, gap float64) []byte {
	var width, height float64
	for i, p := range doc.Pages {
		size := frameOf(p.Frame).Size()
		width = math.Max(width, size.Width)
		height += size.Height
		if i > 0 {
			height += gap
		}
	}
	var b bytes.Buffer
	svgOpen(&b, width, height)
	y := 0.0
	for _, p := range doc.Pages {
		f := frameOf(p.Frame)
		fmt.Fprintf(&b, "<g id=\"page-%d\">\n", p.Number)
		writeFrame(&b, f, y)
		b.WriteString("</g>\n")
		y += f.Size().Height + gap
	}
	b.WriteString("</svg>\n")
	return b.Bytes()
}

func svgOpen(b *bytes.Buffer, w, h float64) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%gpt" height="%gpt" viewBox="0 0 %g %g">`+"\n", w, h, w, h)
}

func writeFrame(b *bytes.Buffer, f *Frame, dy float64) {
	size := f.Size()
	fmt.Fprintf(b, `<rect x="0" y="%g" width="%g" height="%g" fill="#ffffff"/>`+"\n", dy, size.Width, size.Height)
	for _, it := range f.Items {
		fill := "#000000"
		if it.Link != nil {
			fill = "#0000ee"
			href := it.Link.URL
			if href == "" {
				href = fmt.Sprintf("#page-%d", it.Link.Page)
			}
			b.WriteString(`<a href="`)
			_ = xml.EscapeText(b, []byte(href))
			b.WriteString(`">`)
		}
		weight := ""
		if it.Heading {
			weight = ` font-weight="bold"`
		}
		fmt.Fprintf(b, `<text x="%g" y="%g" font-family="Courier, monospace" font-size="%g" fill="%s"%s xml:space="preserve">`,
			it.Pos.X, it.Pos.Y+dy, FontSize, fill, weight)
		_ = xml.EscapeText(b, []byte(it.Text))
		b.WriteString("</text>")
		if it.Link != nil {
			b.WriteString("</a>")
		}
		b.WriteString("\n")
	}
}
