// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package textset is a small line-oriented typesetting engine. It lays out
// plain text, headings and a handful of #functions on fixed A4 pages, and
// implements every collaborator a compilation session needs: compiling,
// source navigation, rasterization and PDF/SVG encoding.
//
// Markup, one construct per line:
//
//	= Heading
//	#include "chapter.typ"          (relative, /root-relative or @ns/name:x.y.z)
//	#link("https://example.org")[label]
//	#link(3)[see page three]
//	#pagebreak()
//	#today() or #today(2)
//	// comment
//
// Anything else is set verbatim.
package textset

import (
	"github.com/rs/zerolog"

	"github.com/petar-djukic/typhost/pkg/engine"
)

// Engine is the textset engine. It is stateless and safe for concurrent use.
type Engine struct {
	log zerolog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine that logs through log.
func New(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("engine", "textset").Logger()}
}
