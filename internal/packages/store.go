// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package packages locates remote packages on disk and downloads missing
// ones into a local cache.
//
// Packages live at <dir>/<namespace>/<name>/<version>. The data directory
// holds locally installed packages and is never written to; the cache
// directory receives downloads. Only the "preview" namespace is
// downloadable.
package packages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/petar-djukic/typhost/pkg/types"
)

// DownloadNamespace is the only namespace fetched from the registry.
const DownloadNamespace = "preview"

// ErrDownload is returned when a package could not be fetched.
var ErrDownload = errors.New("package download failed")

// Downloader fetches a package into dest, which does not exist yet.
type Downloader interface {
	Download(ctx context.Context, spec types.PackageSpec, dest string, progress io.Writer) error
}

// Config configures a Store.
type Config struct {
	CacheDir   string         // Download target (required for downloads)
	DataDir    string         // Locally installed packages (optional)
	Downloader Downloader     // nil disables downloads
	Progress   io.Writer      // Download progress sink (default io.Discard)
	Logger     zerolog.Logger // Logger for download events
}

// Store resolves package specs to directories. It is safe for concurrent
// use and may be shared between sessions.
type Store struct {
	cfg   Config
	group singleflight.Group
}

// NewStore creates a package store.
func NewStore(cfg Config) *Store {
	if cfg.Progress == nil {
		cfg.Progress = io.Discard
	}
	return &Store{cfg: cfg}
}

// Dir returns where spec lives below base.
func Dir(base string, spec types.PackageSpec) string {
	return filepath.Join(base, spec.Namespace, spec.Name, spec.Version.String())
}

// Lookup returns the directory of spec when it is already installed or
// cached. It never downloads.
func (s *Store) Lookup(spec types.PackageSpec) (string, bool) {
	for _, base := range []string{s.cfg.DataDir, s.cfg.CacheDir} {
		if base == "" {
			continue
		}
		if dir := Dir(base, spec); isDir(dir) {
			return dir, true
		}
	}
	return "", false
}

// Prepare returns the root directory of spec, downloading it into the cache
// when it is not available locally. Concurrent calls for the same spec
// share one download. A caller whose ctx ends stops waiting, but the shared
// download keeps running for the other callers.
func (s *Store) Prepare(ctx context.Context, spec types.PackageSpec) (string, error) {
	if dir, ok := s.Lookup(spec); ok {
		return dir, nil
	}
	if s.cfg.CacheDir == "" || spec.Namespace != DownloadNamespace || s.cfg.Downloader == nil {
		return "", fmt.Errorf("%w: %s", types.ErrPackageNotFound, spec)
	}
	dir := Dir(s.cfg.CacheDir, spec)

	ch := s.group.DoChan(spec.String(), func() (any, error) {
		if isDir(dir) {
			return nil, nil
		}
		return nil, s.download(context.WithoutCancel(ctx), spec, dir)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return dir, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Store) download(ctx context.Context, spec types.PackageSpec, dir string) error {
	log := s.cfg.Logger.With().Str("package", spec.String()).Logger()
	log.Info().Msg("downloading package")

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}
	tmp, err := os.MkdirTemp(parent, ".download-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}
	// The downloader expects a fresh destination.
	if err := os.Remove(tmp); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}
	defer os.RemoveAll(tmp)

	if err := s.cfg.Downloader.Download(ctx, spec, tmp, s.cfg.Progress); err != nil {
		log.Warn().Err(err).Msg("package download failed")
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}

	m, err := ReadManifest(tmp)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}
	if err := m.Validate(spec); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}

	if err := os.Rename(tmp, dir); err != nil {
		if isDir(dir) {
			return nil
		}
		return fmt.Errorf("%w: %s: %v", ErrDownload, spec, err)
	}
	log.Info().Str("dir", dir).Msg("package installed")
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
