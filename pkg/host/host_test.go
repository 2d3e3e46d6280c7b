// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package host

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/typhost/internal/textset"
	"github.com/petar-djukic/typhost/pkg/types"
)

func setupProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func newHost(t *testing.T, root string) Host {
	t.Helper()
	h, err := New(Config{
		Root:   root,
		Now:    func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) },
		Logger: zerolog.Nop(),
	}, textset.New(zerolog.Nop()))
	require.NoError(t, err)
	return h
}

func TestNew_InvalidConfig(t *testing.T) {
	eng := textset.New(zerolog.Nop())
	tests := []struct {
		name string
		cfg  Config
		eng  *textset.Engine
	}{
		{name: "missing root", cfg: Config{}, eng: eng},
		{name: "root does not exist", cfg: Config{Root: filepath.Join(t.TempDir(), "nope")}, eng: eng},
		{name: "negative scale", cfg: Config{Root: t.TempDir(), Scale: -1}, eng: eng},
		{name: "nil engine", cfg: Config{Root: t.TempDir()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.eng == nil {
				_, err = New(tc.cfg, nil)
			} else {
				_, err = New(tc.cfg, tc.eng)
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestHost_CompileAndRender(t *testing.T) {
	root := setupProject(t, map[string]string{
		"main.typ":        "= Notes\n#include \"ch/one.typ\"",
		"ch/one.typ":      "chapter one",
		"images/logo.png": "png",
	})
	h := newHost(t, root)
	ctx := context.Background()

	diags, err := h.Compile(ctx)
	require.NoError(t, err)
	assert.Empty(t, diags)

	n, err := h.PageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	images, err := h.RenderAll(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, 595, images[0].Width)
	assert.True(t, bytes.HasPrefix(images[0].PNG, []byte("\x89PNG")))

	require.NoError(t, h.SetScale(ctx, 2))
	img, err := h.RenderPage(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1190, img.Width)

	_, err = h.RenderPage(ctx, 1)
	assert.ErrorIs(t, err, types.ErrNoPage)

	deps, err := h.Dependencies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(h.Root(), "ch", "one.typ"),
		filepath.Join(h.Root(), "main.typ"),
	}, deps)

	assert.Equal(t, []Entry{{Name: "ch", IsDir: true}, {Name: "images", IsDir: true}, {Name: "main.typ"}}, h.Entries())
}

func TestHost_EditAndRecompileKeepsLastGoodDocument(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "page one"})
	h := newHost(t, root)
	ctx := context.Background()

	_, err := h.Compile(ctx)
	require.NoError(t, err)

	require.NoError(t, h.UpdateFileSource(ctx, filepath.Join(root, "main.typ"), "ok\n#broken()"))
	_, err = h.Compile(ctx)
	var compErr *types.CompilationError
	require.True(t, errors.As(err, &compErr))
	require.Len(t, compErr.Diagnostics, 1)
	d := compErr.Diagnostics[0]
	assert.Equal(t, "unknown function: broken", d.Message)
	assert.Equal(t, types.DiagnosticPosition{Line: 2, Column: 1, EndLine: 2, EndColumn: 8}, d.Position)
	assert.Equal(t, filepath.Join(h.Root(), "main.typ"), d.Path)

	n, err := h.PageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the previous document stays cached")

	out := h.Report(compErr.Diagnostics)
	assert.Contains(t, out, "unknown function: broken")
	assert.Contains(t, out, ">    2 │ #broken()")
}

func TestHost_SetMainFile(t *testing.T) {
	root := setupProject(t, map[string]string{
		"main.typ":  "main",
		"other.typ": "first\n#pagebreak()\nsecond",
	})
	h := newHost(t, root)
	ctx := context.Background()

	err := h.SetMainFile(ctx, "missing.typ")
	assert.ErrorIs(t, err, ErrFileNotFound)

	err = h.SetMainFile(ctx, filepath.Join(t.TempDir(), "outside.typ"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	require.NoError(t, h.SetMainFile(ctx, "other.typ"))
	_, err = h.Compile(ctx)
	require.NoError(t, err)
	n, err := h.PageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHost_AddFileSeedsContent(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "#include \"draft.typ\""})
	h := newHost(t, root)
	ctx := context.Background()

	_, err := h.Compile(ctx)
	require.Error(t, err)

	require.NoError(t, h.AddFile(ctx, "draft.typ", "not saved yet"))
	_, err = h.Compile(ctx)
	require.NoError(t, err)

	deps, err := h.Dependencies(ctx)
	require.NoError(t, err)
	assert.Contains(t, deps, filepath.Join(h.Root(), "draft.typ"))
}

func TestHost_CursorAndClickAreInverse(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "hello\nworld"})
	h := newHost(t, root)
	ctx := context.Background()
	text := "hello\nworld"

	_, err := h.Compile(ctx)
	require.NoError(t, err)

	pos, err := h.CursorToPreview(ctx, 8, text)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 1, pos.Page)

	target, err := h.Click(ctx, text, pos.Page-1, pos.X, pos.Y)
	require.NoError(t, err)
	assert.Equal(t, types.ClickFile, target.Kind)
	assert.Equal(t, 8, target.Offset)
	assert.Equal(t, filepath.Join(h.Root(), "main.typ"), target.Path)

	target, err = h.Click(ctx, text, 4, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, types.ClickNone, target.Kind)
}

func TestHost_AutocompleteAndHover(t *testing.T) {
	text := "#pa"
	root := setupProject(t, map[string]string{"main.typ": text})
	h := newHost(t, root)
	ctx := context.Background()

	resp, err := h.Autocomplete(ctx, text, 3, false)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 1, resp.Offset)
	require.Len(t, resp.Completions, 1)
	assert.Equal(t, "pagebreak", resp.Completions[0].Label)

	tip, err := h.Hover(ctx, text, 2)
	require.NoError(t, err)
	assert.Nil(t, tip, "no function is named pa")

	require.NoError(t, h.UpdateFileSource(ctx, "main.typ", "#today()"))
	tip, err = h.Hover(ctx, "#today()", 3)
	require.NoError(t, err)
	require.NotNil(t, tip)
	assert.Equal(t, types.TooltipCode, tip.Kind)
}

func TestHost_Export(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "one\n#pagebreak()\ntwo"})
	h := newHost(t, root)
	ctx := context.Background()
	out := t.TempDir()

	files, err := h.Export(ctx, filepath.Join(out, "doc.pdf"), "pdf", types.AllPages())
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(out, "doc.pdf")}, files)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "D:20260506070800")

	files, err = h.Export(ctx, filepath.Join(out, "doc.png"), "PNG", types.ExportOptions{StartPage: 0, EndPage: 10, PNGScale: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "doc_page_1.png"), filepath.Join(out, "doc_page_2.png")}, files)

	_, err = h.Export(ctx, filepath.Join(out, "doc.docx"), "docx", types.AllPages())
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestHost_ExportRequiresSuccessfulCompile(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "fine"})
	h := newHost(t, root)
	ctx := context.Background()

	_, err := h.Compile(ctx)
	require.NoError(t, err)
	require.NoError(t, h.UpdateFileSource(ctx, "main.typ", "#nope()"))

	target := filepath.Join(t.TempDir(), "doc.pdf")
	_, err = h.Export(ctx, target, "pdf", types.AllPages())
	assert.ErrorIs(t, err, types.ErrNoDocument)
	var compErr *types.CompilationError
	assert.True(t, errors.As(err, &compErr))
	assert.NoFileExists(t, target)
}

func TestHost_PackageFromDataDir(t *testing.T) {
	root := setupProject(t, map[string]string{"main.typ": "#include \"@local/greet:1.0.0\""})
	data := setupProject(t, map[string]string{
		"local/greet/1.0.0/typst.toml": "[package]\nname = \"greet\"\nversion = \"1.0.0\"\nentrypoint = \"src/lib.typ\"\n",
		"local/greet/1.0.0/src/lib.typ": "hello from a package",
	})
	h, err := New(Config{Root: root, DataDir: data, Logger: zerolog.Nop()}, textset.New(zerolog.Nop()))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = h.Compile(ctx)
	require.NoError(t, err)
	deps, err := h.Dependencies(ctx)
	require.NoError(t, err)
	assert.Contains(t, deps, filepath.Join(data, "local", "greet", "1.0.0", "src", "lib.typ"))
}

func TestHost_OpenWorkspaceStartsFresh(t *testing.T) {
	first := setupProject(t, map[string]string{"main.typ": "first"})
	second := setupProject(t, map[string]string{"main.typ": "a\n#pagebreak()\nb", "notes.typ": "n"})
	h := newHost(t, first)
	ctx := context.Background()

	_, err := h.Compile(ctx)
	require.NoError(t, err)

	require.NoError(t, h.OpenWorkspace(ctx, second))
	n, err := h.PageCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "a new workspace has no cached document")
	assert.Len(t, h.Entries(), 2)

	_, err = h.Compile(ctx)
	require.NoError(t, err)
	n, err = h.PageCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Error(t, h.OpenWorkspace(ctx, filepath.Join(second, "missing")))
}
