// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package host is the public entry point of typhost: it owns the workspace
// and compilation session of one open project and exposes every operation
// an editor front end needs. Paths are host file system paths; offsets and
// cursors are character offsets into the given text.
package host

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/petar-djukic/typhost/pkg/types"
)

// Errors returned by the Host API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrFileNotFound  = errors.New("file not found")
)

// Config configures a Host.
type Config struct {
	Root           string           // Project root opened at start (required)
	Main           string           // Entry file relative to Root (default main.typ)
	Scale          float64          // Preview pixels per point (default 1.0)
	PNGExportScale float64          // PNG export pixels per point (default 3.0)
	CacheDir       string           // Package download cache (empty disables downloads)
	DataDir        string           // Locally installed packages (optional)
	Registry       string           // Package repositories base URL (empty disables downloads)
	Progress       io.Writer        // Package download progress (default discarded)
	Now            func() time.Time // Wall clock (default time.Now)
	Logger         zerolog.Logger
}

// Entry is a top-level item of the open workspace.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Host manages one open project.
type Host interface {
	// Root returns the absolute root of the open workspace.
	Root() string
	// OpenWorkspace replaces the session with a fresh one rooted at root.
	// Caches are not carried over; the package store is shared.
	OpenWorkspace(ctx context.Context, root string) error
	// Entries lists the top-level entries of the workspace.
	Entries() []Entry

	// SetMainFile makes an existing project file the entry file.
	SetMainFile(ctx context.Context, path string) error
	// UpdateFileSource installs editor text for a file.
	UpdateFileSource(ctx context.Context, path, text string) error
	// AddFile seeds the content of a file that may not exist on disk.
	AddFile(ctx context.Context, path, text string) error

	// Compile compiles the entry file. On failure it returns a
	// *types.CompilationError and keeps the previous document.
	Compile(ctx context.Context) ([]types.Diagnostic, error)
	// Report formats diagnostics with source context.
	Report(diags []types.Diagnostic) string
	RenderAll(ctx context.Context) ([]types.RenderedImage, error)
	RenderPage(ctx context.Context, index int) (types.RenderedImage, error)
	PageCount(ctx context.Context) (int, error)
	SetScale(ctx context.Context, scale float64) error

	CursorToPreview(ctx context.Context, cursor int, text string) (*types.PreviewPosition, error)
	Click(ctx context.Context, text string, page int, x, y float64) (types.ClickTarget, error)
	Autocomplete(ctx context.Context, text string, cursor int, explicit bool) (*types.CompletionResponse, error)
	Hover(ctx context.Context, text string, cursor int) (*types.Tooltip, error)

	// Export compiles and writes the document in format ("pdf", "png" or
	// "svg") to path, returning the files written.
	Export(ctx context.Context, path, format string, opts types.ExportOptions) ([]string, error)
	// Dependencies returns the host paths read by the last compilation.
	Dependencies(ctx context.Context) ([]string, error)
}
