// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package navigate turns clicks on rendered pages into navigation targets.
package navigate

import (
	"github.com/petar-djukic/typhost/internal/position"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/types"
)

// View is the part of the world navigation needs: file access for the
// engine plus the identity to path table.
type View interface {
	engine.World
	LookupPathForIdentity(id types.FileID) (string, bool)
}

// Click is a click on the preview.
type Click struct {
	Text  string  // Current editor text, used when the target source is unavailable
	Page  int     // 0-based page index
	X     float64 // Pixels
	Y     float64 // Pixels
	Scale float64 // Pixels per point of the preview
}

// Resolve maps a click to a target. Every failure (no document, page out of
// range, nothing under the cursor, file without a host path) yields
// types.NoJump.
func Resolve(view View, ide engine.IDE, doc *engine.Document, c Click) types.ClickTarget {
	if doc == nil || c.Page < 0 || c.Page >= len(doc.Pages) {
		return types.NoJump
	}
	pt := types.Point{
		X: position.PixelToPoint(c.X, c.Scale),
		Y: position.PixelToPoint(c.Y, c.Scale),
	}
	jump, ok := ide.JumpFromClick(view, doc, doc.Pages[c.Page].Frame, pt)
	if !ok {
		return types.NoJump
	}

	switch jump.Kind {
	case engine.JumpFile:
		path, ok := view.LookupPathForIdentity(jump.File)
		if !ok {
			return types.NoJump
		}
		text := c.Text
		if src, err := view.Source(jump.File); err == nil {
			text = src.Text()
		}
		return types.ClickTarget{
			Kind:   types.ClickFile,
			ID:     jump.File,
			Path:   path,
			Offset: position.ByteToChar(text, jump.Offset),
		}
	case engine.JumpPosition:
		return types.ClickTarget{
			Kind:  types.ClickPosition,
			Page:  jump.Position.Page,
			Point: jump.Position.Point,
		}
	case engine.JumpURL:
		return types.ClickTarget{Kind: types.ClickURL, URL: jump.URL}
	default:
		return types.NoJump
	}
}
