// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"fmt"

	"github.com/petar-djukic/typhost/internal/navigate"
	"github.com/petar-djukic/typhost/internal/position"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/types"
)

// CursorToPreview maps a character offset in the entry file to a position
// in the rendered preview. When the engine reports several candidates the
// first one wins. It returns nil when nothing is cached or the cursor
// produces no output.
func (s *Session) CursorToPreview(ctx context.Context, cursor int, text string) (*types.PreviewPosition, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.RUnlock()
	if s.doc == nil {
		return nil, nil
	}
	src, err := s.world.Source(s.world.Main())
	if err != nil {
		return nil, nil
	}
	positions := s.engine.JumpFromCursor(s.doc, src, position.CharToByte(text, cursor))
	if len(positions) == 0 {
		return nil, nil
	}
	first := positions[0]
	return &types.PreviewPosition{
		Page: first.Page,
		X:    position.PointToPixel(first.Point.X, s.scale),
		Y:    position.PointToPixel(first.Point.Y, s.scale),
	}, nil
}

// Click resolves a click at pixel (x, y) on the 0-based page.
func (s *Session) Click(ctx context.Context, text string, page int, x, y float64) (types.ClickTarget, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return types.NoJump, err
	}
	defer s.lock.RUnlock()
	return navigate.Resolve(s.world, s.engine, s.doc, navigate.Click{
		Text:  text,
		Page:  page,
		X:     x,
		Y:     y,
		Scale: s.scale,
	}), nil
}

// Autocomplete returns completions at a character offset in the entry
// file, or nil when there are none.
func (s *Session) Autocomplete(ctx context.Context, text string, cursor int, explicit bool) (*types.CompletionResponse, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.RUnlock()
	src, err := s.world.Source(s.world.Main())
	if err != nil {
		return nil, nil
	}
	start, completions, ok := s.engine.Autocomplete(s.world, s.doc, src, position.CharToByte(text, cursor), explicit)
	if !ok {
		return nil, nil
	}
	return &types.CompletionResponse{
		Offset:      position.ByteToChar(text, start),
		Completions: completions,
	}, nil
}

// Hover returns the tooltip at a character offset in the entry file, or
// nil when there is nothing to show.
func (s *Session) Hover(ctx context.Context, text string, cursor int) (*types.Tooltip, error) {
	if err := s.lock.RLock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.RUnlock()
	src, err := s.world.Source(s.world.Main())
	if err != nil {
		return nil, nil
	}
	tip, ok := s.engine.Tooltip(s.world, s.doc, src, position.CharToByte(text, cursor), engine.SideBefore)
	if !ok {
		return nil, nil
	}
	return &tip, nil
}

// Export compiles the current state and writes it to path. Exports never
// use a stale document: when the compile fails the export is aborted with
// an error matching both types.ErrNoDocument and *types.CompilationError.
func (s *Session) Export(ctx context.Context, path string, format types.ExportFormat, opts types.ExportOptions) ([]string, error) {
	if err := s.lock.Lock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	if _, err := s.compile(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrNoDocument, err)
	}
	if opts.PNGScale <= 0 {
		opts.PNGScale = s.pngScale
	}
	files, err := s.exporter.Export(s.doc, path, format, opts)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("format", format.String()).Strs("files", files).Msg("exported")
	return files, nil
}

// RegisterOverlay installs editor text for id and makes it the entry file.
func (s *Session) RegisterOverlay(ctx context.Context, id types.FileID, text string) error {
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.world.RegisterOverlay(id, text)
	return nil
}

// UpdateOverlay installs editor text for id without changing the entry.
func (s *Session) UpdateOverlay(ctx context.Context, id types.FileID, text string) error {
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.world.UpdateOverlay(id, text)
	return nil
}

// SetMain switches the entry file.
func (s *Session) SetMain(ctx context.Context, id types.FileID) error {
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.world.SetMain(id)
	return nil
}

// SetMainAtPath records the host path of id and makes it the entry file.
func (s *Session) SetMainAtPath(ctx context.Context, id types.FileID, path string) error {
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.world.RegisterPath(id, path)
	s.world.SetMain(id)
	return nil
}

// UpdateOverlayAtPath records the host path of id and replaces its overlay.
func (s *Session) UpdateOverlayAtPath(ctx context.Context, id types.FileID, path, text string) error {
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()
	s.world.RegisterPath(id, path)
	s.world.UpdateOverlay(id, text)
	return nil
}

// RegisterFileAtPath seeds a project file and records its host path.
func (s *Session) RegisterFileAtPath(ctx context.Context, name, path string, data []byte) (types.FileID, error) {
	if err := s.lock.Lock(ctx); err != nil {
		return types.FileID{}, err
	}
	defer s.lock.Unlock()
	return s.world.RegisterFileAtPath(name, path, data), nil
}
