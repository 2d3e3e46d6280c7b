// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package export writes compiled documents to disk as PDF, PNG or SVG.
//
// PDF always produces one file. PNG produces one file per page and SVG
// either one file per page or one merged file. Per-page files are named
// <stem>_page_<n>.<ext> next to the requested path, with n 1-based.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/types"
)

const defaultPNGScale = 3.0

// Options configures an Orchestrator.
type Options struct {
	Exporter   engine.Exporter   // Document encoders (required)
	Rasterizer engine.Rasterizer // Page rasterizer (required for PNG)
	Now        func() time.Time  // Wall clock for PDF timestamps (default time.Now)
	Logger     zerolog.Logger
}

// Orchestrator writes documents in the supported formats.
type Orchestrator struct {
	exporter   engine.Exporter
	rasterizer engine.Rasterizer
	now        func() time.Time
	log        zerolog.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		exporter:   opts.Exporter,
		rasterizer: opts.Rasterizer,
		now:        opts.Now,
		log:        opts.Logger,
	}
}

// Export writes doc to path in the given format and returns the files
// written.
func (o *Orchestrator) Export(doc *engine.Document, path string, format types.ExportFormat, opts types.ExportOptions) ([]string, error) {
	if doc == nil {
		return nil, types.ErrNoDocument
	}
	var (
		files []string
		err   error
	)
	switch format {
	case types.FormatPDF:
		err = o.PDF(doc, path)
		if err == nil {
			files = []string{path}
		}
	case types.FormatPNG:
		files, err = o.PNG(doc, path, opts)
	case types.FormatSVG:
		files, err = o.SVG(doc, path, opts)
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("format", format.String()).Int("files", len(files)).Msg("export written")
	return files, nil
}

// PDF writes the whole document to path with a minute-precision local
// timestamp.
func (o *Orchestrator) PDF(doc *engine.Document, path string) error {
	data, err := o.exporter.PDF(doc, engine.PDFOptions{Timestamp: Timestamp(o.now())})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrPDFExport, err)
	}
	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("%w: %v", types.ErrPDFExport, err)
	}
	return nil
}

// PNG rasterizes every page in the range and writes one file per page.
// Pages are rendered in parallel.
func (o *Orchestrator) PNG(doc *engine.Document, path string, opts types.ExportOptions) ([]string, error) {
	scale := opts.PNGScale
	if scale <= 0 {
		scale = defaultPNGScale
	}
	indices := pageIndices(opts.StartPage, opts.EndPage, len(doc.Pages))
	return iter.MapErr(indices, func(i *int) (string, error) {
		img := o.rasterizer.Rasterize(doc.Pages[*i], scale)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("%w: page %d: %v", types.ErrPNGExport, *i+1, err)
		}
		name := PageFileName(path, *i, types.FormatPNG)
		if err := atomicWrite(name, buf.Bytes()); err != nil {
			return "", fmt.Errorf("%w: page %d: %v", types.ErrPNGExport, *i+1, err)
		}
		return name, nil
	})
}

// SVG writes one file per page in the range, or a single file with every
// page stacked vertically when opts.Merged is set.
func (o *Orchestrator) SVG(doc *engine.Document, path string, opts types.ExportOptions) ([]string, error) {
	if opts.Merged {
		if err := atomicWrite(path, o.exporter.SVGMerged(doc, opts.MergedGap)); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrSVGExport, err)
		}
		return []string{path}, nil
	}
	var files []string
	for _, i := range pageIndices(opts.StartPage, opts.EndPage, len(doc.Pages)) {
		name := PageFileName(path, i, types.FormatSVG)
		if err := atomicWrite(name, o.exporter.SVG(doc.Pages[i])); err != nil {
			return files, fmt.Errorf("%w: page %d: %v", types.ErrSVGExport, i+1, err)
		}
		files = append(files, name)
	}
	return files, nil
}

// PageRange clamps the inclusive 0-based range [start, end] to a document
// of n pages. A negative end means the last page. ok is false when the
// clamped range is empty.
func PageRange(start, end, n int) (int, int, bool) {
	if start < 0 {
		start = 0
	}
	last := n - 1
	if end < 0 || end > last {
		end = last
	}
	if n == 0 || start > end {
		return 0, 0, false
	}
	return start, end, true
}

func pageIndices(start, end, n int) []int {
	start, end, ok := PageRange(start, end, n)
	if !ok {
		return nil
	}
	indices := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		indices = append(indices, i)
	}
	return indices
}

// PageFileName returns the per-page output path for the 0-based page index.
func PageFileName(path string, index int, format types.ExportFormat) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s_page_%d.%s", stem, index+1, format.Ext()))
}

// Timestamp truncates t to the minute, keeping its zone offset.
func Timestamp(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
