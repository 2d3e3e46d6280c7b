// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package session drives compilations of one project and answers editor
// queries against the last successfully compiled document.
//
// A session is either empty or holds a cached document. A failed compile
// leaves the cache untouched, so the preview keeps showing the last good
// output while the user fixes errors. Queries share the session lock;
// compiles, exports and world mutations hold it exclusively.
package session

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/petar-djukic/typhost/internal/export"
	"github.com/petar-djukic/typhost/internal/position"
	"github.com/petar-djukic/typhost/internal/world"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/types"
)

const defaultScale = 1.0

// Options configures a Session.
type Options struct {
	World    *world.World     // Project view (required)
	Engine   engine.Engine    // Typesetting engine (required)
	Scale    float64          // Preview pixels per point (default 1.0)
	PNGScale float64          // Pixels per point for PNG export (default 3.0)
	Now      func() time.Time // Wall clock for export timestamps (default time.Now)
	Logger   zerolog.Logger
}

// Session is the compilation state of one project.
type Session struct {
	id       string
	world    *world.World
	engine   engine.Engine
	exporter *export.Orchestrator
	log      zerolog.Logger
	lock     *rwLock

	// Guarded by lock.
	doc      *engine.Document
	scale    float64
	pngScale float64
	deps     []string
}

// New creates an empty session.
func New(opts Options) *Session {
	if opts.Scale <= 0 {
		opts.Scale = defaultScale
	}
	id := uuid.NewString()
	log := opts.Logger.With().Str("session", id).Logger()
	return &Session{
		id:     id,
		world:  opts.World,
		engine: opts.Engine,
		exporter: export.New(export.Options{
			Exporter:   opts.Engine,
			Rasterizer: opts.Engine,
			Now:        opts.Now,
			Logger:     log,
		}),
		log:      log,
		lock:     newRWLock(),
		scale:    opts.Scale,
		pngScale: opts.PNGScale,
	}
}

// ID returns the unique id of the session.
func (s *Session) ID() string {
	return s.id
}

// World returns the project view. Callers must not mutate it directly
// while the session is in use; use the session's mutators instead.
func (s *Session) World() *world.World {
	return s.world
}

// Compile runs a new compilation pass over the entry file. On success the
// document cache is replaced and the warnings are returned. On failure the
// cache keeps the previous document and the returned *types.CompilationError
// holds the warnings followed by the errors.
func (s *Session) Compile(ctx context.Context) ([]types.Diagnostic, error) {
	if err := s.lock.Lock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()
	return s.compile(ctx)
}

func (s *Session) compile(ctx context.Context) ([]types.Diagnostic, error) {
	start := time.Now()
	s.world.BeginPass(ctx)
	defer s.world.EndPass()

	res := s.engine.Compile(ctx, s.world)
	s.deps = s.world.Dependencies()
	warnings := s.mapDiagnostics(res.Warnings)

	if res.Document == nil || len(res.Errors) > 0 {
		errs := s.mapDiagnostics(res.Errors)
		s.log.Debug().
			Stringer("main", s.world.Main()).
			Int("errors", len(errs)).
			Int("warnings", len(warnings)).
			Dur("elapsed", time.Since(start)).
			Msg("compilation failed")
		return nil, &types.CompilationError{Diagnostics: append(warnings, errs...)}
	}

	s.doc = res.Document
	s.log.Debug().
		Stringer("main", s.world.Main()).
		Int("pages", len(res.Document.Pages)).
		Int("warnings", len(warnings)).
		Int("dependencies", len(s.deps)).
		Dur("elapsed", time.Since(start)).
		Msg("compiled")
	return warnings, nil
}

// mapDiagnostics attaches display positions to compiler diagnostics. The
// mapping runs in parallel and keeps the input order.
func (s *Session) mapDiagnostics(diags []engine.SourceDiagnostic) []types.Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	return iter.Map(diags, func(d *engine.SourceDiagnostic) types.Diagnostic {
		out := types.Diagnostic{
			Severity: d.Severity,
			Message:  d.Message,
			Hints:    d.Hints,
		}
		if d.Span.Detached {
			return out
		}
		out.File = d.Span.File.String()
		if p, ok := s.world.LookupPathForIdentity(d.Span.File); ok {
			out.Path = p
		}
		out.Range = &types.ByteRange{Start: d.Span.Start, End: d.Span.End}
		src, err := s.world.Source(d.Span.File)
		out.Position = position.Diagnostic(src, err, out.Range)
		return out
	})
}

// Reset drops the cached document.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.doc = nil
	return nil
}

// PageCount returns the number of pages of the cached document, or 0 when
// nothing is cached.
func (s *Session) PageCount(ctx context.Context) (int, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return 0, err
	}
	defer s.lock.RUnlock()
	if s.doc == nil {
		return 0, nil
	}
	return len(s.doc.Pages), nil
}

// Scale returns the preview scale in pixels per point.
func (s *Session) Scale(ctx context.Context) (float64, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return 0, err
	}
	defer s.lock.RUnlock()
	return s.scale, nil
}

// SetScale changes the preview scale.
func (s *Session) SetScale(ctx context.Context, scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("scale must be positive, got %v", scale)
	}
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.scale = scale
	return nil
}

// Dependencies returns the host paths read by the last compilation.
func (s *Session) Dependencies(ctx context.Context) ([]string, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.RUnlock()
	return append([]string(nil), s.deps...), nil
}

// RenderAll rasterizes every page of the cached document in parallel and
// returns the images in page order.
func (s *Session) RenderAll(ctx context.Context) ([]types.RenderedImage, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.RUnlock()
	if s.doc == nil {
		return nil, types.ErrNoDocument
	}
	return iter.Map(s.doc.Pages, func(p *engine.Page) types.RenderedImage {
		return s.render(*p)
	}), nil
}

// RenderPage rasterizes one page by 0-based index.
func (s *Session) RenderPage(ctx context.Context, index int) (types.RenderedImage, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return types.RenderedImage{}, err
	}
	defer s.lock.RUnlock()
	if s.doc == nil {
		return types.RenderedImage{}, types.ErrNoDocument
	}
	if index < 0 || index >= len(s.doc.Pages) {
		return types.RenderedImage{}, fmt.Errorf("%w: %d of %d", types.ErrNoPage, index, len(s.doc.Pages))
	}
	return s.render(s.doc.Pages[index]), nil
}

// render encodes one page. An encoding failure yields an empty image in
// place of the page so the preview keeps its page count.
func (s *Session) render(page engine.Page) types.RenderedImage {
	img := s.engine.Rasterize(page, s.scale)
	b := img.Bounds()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.log.Warn().Err(err).Int("page", page.Number).Msg("png encoding failed")
		return types.RenderedImage{}
	}
	return types.RenderedImage{PNG: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}
}
