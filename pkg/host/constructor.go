// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petar-djukic/typhost/internal/packages"
	"github.com/petar-djukic/typhost/internal/report"
	"github.com/petar-djukic/typhost/internal/session"
	"github.com/petar-djukic/typhost/internal/workspace"
	"github.com/petar-djukic/typhost/internal/world"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/types"
)

const (
	defaultMain           = world.DefaultMain
	defaultScale          = 1.0
	defaultPNGExportScale = 3.0
)

// New validates the config, prepares the shared package store and opens
// cfg.Root.
func New(cfg Config, eng engine.Engine) (Host, error) {
	if err := validateConfig(cfg, eng); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	applyDefaults(&cfg)

	storeCfg := packages.Config{
		CacheDir: cfg.CacheDir,
		DataDir:  cfg.DataDir,
		Progress: cfg.Progress,
		Logger:   cfg.Logger,
	}
	if cfg.CacheDir != "" && cfg.Registry != "" {
		storeCfg.Downloader = &packages.GitDownloader{Registry: cfg.Registry, Shallow: true}
	}

	h := &hostImpl{
		cfg:    cfg,
		engine: eng,
		store:  packages.NewStore(storeCfg),
		log:    cfg.Logger,
	}
	if err := h.OpenWorkspace(context.Background(), cfg.Root); err != nil {
		return nil, err
	}
	return h, nil
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config, eng engine.Engine) error {
	if eng == nil {
		return fmt.Errorf("engine is required")
	}
	if cfg.Root == "" {
		return fmt.Errorf("Root is required")
	}
	if info, err := os.Stat(cfg.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("Root %q does not exist or is not a directory", cfg.Root)
	}
	if cfg.Scale < 0 {
		return fmt.Errorf("Scale must not be negative")
	}
	if cfg.PNGExportScale < 0 {
		return fmt.Errorf("PNGExportScale must not be negative")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Main == "" {
		cfg.Main = defaultMain
	}
	if cfg.Scale == 0 {
		cfg.Scale = defaultScale
	}
	if cfg.PNGExportScale == 0 {
		cfg.PNGExportScale = defaultPNGExportScale
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
}

// hostImpl implements Host over one session at a time.
type hostImpl struct {
	cfg    Config
	engine engine.Engine
	store  *packages.Store
	log    zerolog.Logger

	mu      sync.RWMutex
	ws      *workspace.Workspace
	session *session.Session
}

func (h *hostImpl) current() (*workspace.Workspace, *session.Session) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ws, h.session
}

func (h *hostImpl) Root() string {
	ws, _ := h.current()
	return ws.Root
}

func (h *hostImpl) OpenWorkspace(ctx context.Context, root string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ws, err := workspace.Scan(root)
	if err != nil {
		return fmt.Errorf("opening workspace: %w", err)
	}
	w := world.New(world.Options{
		Root:     ws.Root,
		Main:     h.cfg.Main,
		Packages: h.store,
		Clock:    h.cfg.Now,
		Logger:   h.log,
	})
	ws.Register(w)
	s := session.New(session.Options{
		World:    w,
		Engine:   h.engine,
		Scale:    h.cfg.Scale,
		PNGScale: h.cfg.PNGExportScale,
		Now:      h.cfg.Now,
		Logger:   h.log,
	})

	h.mu.Lock()
	h.ws, h.session = ws, s
	h.mu.Unlock()
	h.log.Info().Str("root", ws.Root).Int("files", len(ws.Files)).Str("session", s.ID()).Msg("workspace opened")
	return nil
}

func (h *hostImpl) Entries() []Entry {
	ws, _ := h.current()
	out := make([]Entry, len(ws.Entries))
	for i, e := range ws.Entries {
		out[i] = Entry{Name: e.Name, IsDir: e.IsDir}
	}
	return out
}

// hostPath makes path absolute, resolving relative paths against the root.
func hostPath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// identity maps a host path into identity space and records the mapping.
func (h *hostImpl) identity(s *session.Session, path string) (types.FileID, string, error) {
	w := s.World()
	abs := hostPath(w.Root(), path)
	id, ok := w.IdentityFor(abs)
	if !ok {
		return types.FileID{}, "", fmt.Errorf("%w: %s is outside the workspace", ErrFileNotFound, path)
	}
	return id, abs, nil
}

func (h *hostImpl) SetMainFile(ctx context.Context, path string) error {
	_, s := h.current()
	w := s.World()
	abs := hostPath(w.Root(), path)
	if id, ok := w.LookupIdentityForPath(abs); ok {
		return s.SetMain(ctx, id)
	}
	if info, err := os.Stat(abs); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	id, _, err := h.identity(s, abs)
	if err != nil {
		return err
	}
	return s.SetMainAtPath(ctx, id, abs)
}

func (h *hostImpl) UpdateFileSource(ctx context.Context, path, text string) error {
	_, s := h.current()
	id, abs, err := h.identity(s, path)
	if err != nil {
		return err
	}
	return s.UpdateOverlayAtPath(ctx, id, abs, text)
}

func (h *hostImpl) AddFile(ctx context.Context, path, text string) error {
	_, s := h.current()
	id, abs, err := h.identity(s, path)
	if err != nil {
		return err
	}
	_, err = s.RegisterFileAtPath(ctx, string(id.VPath()), abs, []byte(text))
	return err
}

func (h *hostImpl) Compile(ctx context.Context) ([]types.Diagnostic, error) {
	_, s := h.current()
	return s.Compile(ctx)
}

func (h *hostImpl) Report(diags []types.Diagnostic) string {
	_, s := h.current()
	w := s.World()
	return report.Format(diags, report.FormatConfig{
		Source: func(d types.Diagnostic) (string, bool) {
			id, ok := w.LookupIdentityForPath(d.Path)
			if !ok {
				if d.File == "" || d.File[0] != '/' {
					return "", false
				}
				id = types.ProjectFile(d.File)
			}
			src, err := w.Source(id)
			if err != nil {
				return "", false
			}
			return src.Text(), true
		},
	})
}

func (h *hostImpl) RenderAll(ctx context.Context) ([]types.RenderedImage, error) {
	_, s := h.current()
	return s.RenderAll(ctx)
}

func (h *hostImpl) RenderPage(ctx context.Context, index int) (types.RenderedImage, error) {
	_, s := h.current()
	return s.RenderPage(ctx, index)
}

func (h *hostImpl) PageCount(ctx context.Context) (int, error) {
	_, s := h.current()
	return s.PageCount(ctx)
}

func (h *hostImpl) SetScale(ctx context.Context, scale float64) error {
	_, s := h.current()
	return s.SetScale(ctx, scale)
}

func (h *hostImpl) CursorToPreview(ctx context.Context, cursor int, text string) (*types.PreviewPosition, error) {
	_, s := h.current()
	return s.CursorToPreview(ctx, cursor, text)
}

func (h *hostImpl) Click(ctx context.Context, text string, page int, x, y float64) (types.ClickTarget, error) {
	_, s := h.current()
	return s.Click(ctx, text, page, x, y)
}

func (h *hostImpl) Autocomplete(ctx context.Context, text string, cursor int, explicit bool) (*types.CompletionResponse, error) {
	_, s := h.current()
	return s.Autocomplete(ctx, text, cursor, explicit)
}

func (h *hostImpl) Hover(ctx context.Context, text string, cursor int) (*types.Tooltip, error) {
	_, s := h.current()
	return s.Hover(ctx, text, cursor)
}

func (h *hostImpl) Export(ctx context.Context, path, format string, opts types.ExportOptions) ([]string, error) {
	f, err := types.ParseExportFormat(format)
	if err != nil {
		return nil, err
	}
	_, s := h.current()
	return s.Export(ctx, path, f, opts)
}

func (h *hostImpl) Dependencies(ctx context.Context) ([]string, error) {
	_, s := h.current()
	return s.Dependencies(ctx)
}
