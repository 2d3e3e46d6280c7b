// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package world

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/typhost/internal/packages"
	"github.com/petar-djukic/typhost/pkg/types"
)

func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestWorld_DefaultMain(t *testing.T) {
	w := New(Options{Root: t.TempDir()})
	assert.Equal(t, types.ProjectFile("main.typ"), w.Main())

	w.SetMain(types.ProjectFile("other.typ"))
	assert.Equal(t, types.ProjectFile("other.typ"), w.Main())
}

func TestWorld_SourceFromDisk(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "hello", "sub/a.typ": "a"})
	w := New(Options{Root: root})

	src, err := w.Source(types.ProjectFile("sub/a.typ"))
	require.NoError(t, err)
	assert.Equal(t, "a", src.Text())

	_, err = w.Source(types.ProjectFile("missing.typ"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = w.Source(types.ProjectFile("../escape.typ"))
	assert.ErrorIs(t, err, types.ErrAccessDenied)
}

func TestWorld_OverlayWins(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "disk"})
	w := New(Options{Root: root})
	id := types.ProjectFile("main.typ")

	w.RegisterOverlay(id, "editor")
	src, err := w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "editor", src.Text())
	assert.Equal(t, id, w.Main())

	data, err := w.File(id)
	require.NoError(t, err)
	assert.Equal(t, "editor", string(data))

	w.RemoveOverlay(id)
	src, err = w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "disk", src.Text())
}

func TestWorld_UpdateOverlayKeepsMain(t *testing.T) {
	w := New(Options{Root: t.TempDir()})
	main := types.ProjectFile("main.typ")
	other := types.ProjectFile("other.typ")
	w.RegisterOverlay(main, "m")
	w.UpdateOverlay(other, "o1")
	w.UpdateOverlay(other, "o2")
	assert.Equal(t, main, w.Main())

	src, err := w.Source(other)
	require.NoError(t, err)
	assert.Equal(t, "o2", src.Text())
	_, edited := src.LastEdit()
	assert.True(t, edited)
}

func TestWorld_RegisterFileAtPath(t *testing.T) {
	root := t.TempDir()
	w := New(Options{Root: root})
	path := filepath.Join(root, "notes.typ")

	id := w.RegisterFileAtPath("notes.typ", path, []byte("seeded"))
	assert.Equal(t, types.ProjectFile("notes.typ"), id)

	src, err := w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "seeded", src.Text())

	got, ok := w.LookupIdentityForPath(path)
	require.True(t, ok)
	assert.Equal(t, id, got)
	p, ok := w.LookupPathForIdentity(id)
	require.True(t, ok)
	assert.Equal(t, path, p)

	_, ok = w.LookupPathForIdentity(types.ProjectFile("unknown.typ"))
	assert.False(t, ok)
}

func TestWorld_RegisterFileKeepsSourceWhenUnchanged(t *testing.T) {
	w := New(Options{Root: t.TempDir()})
	id := types.ProjectFile("lib.typ")
	w.RegisterFile(id, []byte("content"))

	first, err := w.Source(id)
	require.NoError(t, err)

	w.BeginPass(context.Background())
	w.RegisterFile(id, []byte("content"))
	second, err := w.Source(id)
	require.NoError(t, err)
	assert.Same(t, first, second)

	w.BeginPass(context.Background())
	w.RegisterFile(id, []byte("changed"))
	third, err := w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "changed", third.Text())
}

func TestWorld_PassPicksUpDiskChanges(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "v1"})
	w := New(Options{Root: root})
	id := types.ProjectFile("main.typ")

	src, err := w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", src.Text())

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.typ"), []byte("v2"), 0o644))

	// Same pass: cached.
	src, err = w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", src.Text())

	w.BeginPass(context.Background())
	src, err = w.Source(id)
	require.NoError(t, err)
	assert.Equal(t, "v2", src.Text())
}

func TestWorld_Dependencies(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "m", "a.typ": "a", "b.typ": "b"})
	w := New(Options{Root: root})
	w.RegisterOverlay(types.ProjectFile("main.typ"), "overlay")

	_, err := w.Source(types.ProjectFile("main.typ"))
	require.NoError(t, err)
	_, err = w.Source(types.ProjectFile("b.typ"))
	require.NoError(t, err)
	_, err = w.File(types.ProjectFile("a.typ"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(w.Root(), "a.typ"),
		filepath.Join(w.Root(), "b.typ"),
		filepath.Join(w.Root(), "main.typ"),
	}, w.Dependencies())

	w.BeginPass(context.Background())
	assert.Empty(t, w.Dependencies())
	assert.Equal(t, 2, w.CachedFiles())
}

// failingDownloader counts calls and never succeeds.
type failingDownloader struct {
	calls atomic.Int32
}

func (f *failingDownloader) Download(context.Context, types.PackageSpec, string, io.Writer) error {
	f.calls.Add(1)
	return errors.New("registry unreachable")
}

func TestWorld_DependenciesDoNotFetchPackages(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "m"})
	dl := &failingDownloader{}
	store := packages.NewStore(packages.Config{CacheDir: t.TempDir(), Downloader: dl})
	w := New(Options{Root: root, Packages: store})

	spec, err := types.ParsePackageSpec("@preview/foo:1.0.0")
	require.NoError(t, err)
	lib := types.NewFileID(&spec, types.NewVirtualPath("lib.typ"))

	w.BeginPass(context.Background())
	_, err = w.Source(types.ProjectFile("main.typ"))
	require.NoError(t, err)
	_, err = w.Source(lib)
	require.ErrorIs(t, err, packages.ErrDownload)
	_, err = w.Source(lib)
	require.ErrorIs(t, err, packages.ErrDownload)
	require.Equal(t, int32(1), dl.calls.Load())

	assert.Equal(t, []string{filepath.Join(w.Root(), "main.typ")}, w.Dependencies())
	assert.Equal(t, int32(1), dl.calls.Load())
}

func TestWorld_Today(t *testing.T) {
	calls := 0
	fixed := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	w := New(Options{Root: t.TempDir(), Clock: func() time.Time {
		calls++
		return fixed
	}})

	plus2 := 2
	d, ok := w.Today(&plus2)
	require.True(t, ok)
	assert.Equal(t, time.April, d.Month())
	assert.Equal(t, 1, d.Day())

	zero := 0
	d, ok = w.Today(&zero)
	require.True(t, ok)
	assert.Equal(t, 31, d.Day())
	assert.Equal(t, 1, calls)

	bad := 99
	_, ok = w.Today(&bad)
	assert.False(t, ok)

	w.BeginPass(context.Background())
	_, _ = w.Today(nil)
	assert.Equal(t, 2, calls)
}

func TestWorld_IdentityFor(t *testing.T) {
	root := t.TempDir()
	w := New(Options{Root: root})

	id, ok := w.IdentityFor(filepath.Join(w.Root(), "ch", "one.typ"))
	require.True(t, ok)
	assert.Equal(t, types.ProjectFile("ch/one.typ"), id)

	id, ok = w.IdentityFor("rel.typ")
	require.True(t, ok)
	assert.Equal(t, types.ProjectFile("rel.typ"), id)

	_, ok = w.IdentityFor(filepath.Join(filepath.Dir(w.Root()), "outside.typ"))
	assert.False(t, ok)
}
