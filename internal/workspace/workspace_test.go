// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/typhost/internal/world"
	"github.com/petar-djukic/typhost/pkg/types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		".gitignore":         "out/\n*.log\n",
		"main.typ":           "main",
		"chapters/one.typ":   "one",
		"chapters/draft.log": "log",
		"images/logo.png":    "png",
		"out/main.pdf":       "pdf",
		".hidden/secret.typ": "secret",
		"node_modules/x.js":  "js",
		".git/HEAD":          "ref",
	})

	ws, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"chapters/one.typ", "images/logo.png", "main.typ"}, ws.Files)
	assert.Equal(t, []Entry{
		{Name: "chapters", IsDir: true},
		{Name: "images", IsDir: true},
		{Name: "main.typ"},
	}, ws.Entries)
}

func TestScan_NoGitignore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.typ": "a", "b/c.typ": "c"})

	ws, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.typ", "b/c.typ"}, ws.Files)
}

func TestScan_Errors(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"file.typ": "x"})
	_, err = Scan(filepath.Join(root, "file.typ"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRegister(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.typ": "main", "sub/a.typ": "a"})
	ws, err := Scan(root)
	require.NoError(t, err)

	w := world.New(world.Options{Root: root})
	ws.Register(w)

	abs := filepath.Join(ws.Root, "sub", "a.typ")
	id, ok := w.LookupIdentityForPath(abs)
	require.True(t, ok)
	assert.Equal(t, types.ProjectFile("sub/a.typ"), id)

	p, ok := w.LookupPathForIdentity(types.ProjectFile("main.typ"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(ws.Root, "main.typ"), p)
}
