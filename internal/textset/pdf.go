// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package textset

import (
	"bytes"
	"errors"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/petar-djukic/typhost/pkg/engine"
)

// PDF encodes the document using the Courier core font, whose metrics match
// the layout grid.
func (e *Engine) PDF(doc *engine.Document, opts engine.PDFOptions) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("no document to encode")
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("typhost", true)
	if doc.Info.Title != "" {
		pdf.SetTitle(doc.Info.Title, true)
	}
	if len(doc.Info.Author) > 0 {
		pdf.SetAuthor(strings.Join(doc.Info.Author, ", "), true)
	}
	if !opts.Timestamp.IsZero() {
		pdf.SetCreationDate(opts.Timestamp)
		pdf.SetModificationDate(opts.Timestamp)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, p := range doc.Pages {
		f := frameOf(p.Frame)
		size := f.Size()
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
		for _, it := range f.Items {
			style := ""
			if it.Heading {
				style = "B"
			}
			pdf.SetFont("Courier", style, FontSize)
			if it.Link != nil {
				pdf.SetTextColor(0, 0, 0xee)
			} else {
				pdf.SetTextColor(0, 0, 0)
			}
			pdf.Text(it.Pos.X, it.Pos.Y, tr(it.Text))

			if it.Link == nil {
				continue
			}
			x, y, w, h := it.Pos.X, it.Pos.Y-FontSize, it.Width(), LineHeight
			switch {
			case it.Link.URL != "":
				pdf.LinkString(x, y, w, h, it.Link.URL)
			case it.Link.Page <= len(doc.Pages):
				id := pdf.AddLink()
				pdf.SetLink(id, 0, it.Link.Page)
				pdf.Link(x, y, w, h, id)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
