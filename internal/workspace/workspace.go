// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workspace lists the files of a project directory so that host
// paths and file identities can be mapped in both directions.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/petar-djukic/typhost/internal/world"
	"github.com/petar-djukic/typhost/pkg/types"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	".typhost":     {},
}

// Entry is a top-level item of the project directory.
type Entry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Workspace is the result of scanning a project directory.
type Workspace struct {
	Root    string   // Absolute project root
	Files   []string // Project files relative to Root, slash separated and sorted
	Entries []Entry  // Top-level entries, directories first
}

// Scan walks root. Hidden files, tool directories and paths matched by the
// root .gitignore are skipped, as are symlinks.
func Scan(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, abs)
	}
	gi := loadGitignore(abs)
	ws := &Workspace{Root: abs}

	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if path == abs {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if skipped(d, rel, gi) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.Contains(rel, "/") {
			ws.Entries = append(ws.Entries, Entry{Name: d.Name(), IsDir: d.IsDir()})
		}
		if d.Type().IsRegular() {
			ws.Files = append(ws.Files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(ws.Files)
	sort.Slice(ws.Entries, func(i, j int) bool {
		a, b := ws.Entries[i], ws.Entries[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	return ws, nil
}

func skipped(d os.DirEntry, rel string, gi *ignore.GitIgnore) bool {
	name := d.Name()
	if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
		return true
	}
	if d.IsDir() {
		if _, skip := skipDirs[name]; skip {
			return true
		}
		return gi != nil && gi.MatchesPath(rel+"/")
	}
	return gi != nil && gi.MatchesPath(rel)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// Register records the host path of every scanned file in w.
func (ws *Workspace) Register(w *world.World) {
	for _, rel := range ws.Files {
		w.RegisterPath(types.ProjectFile(rel), filepath.Join(ws.Root, filepath.FromSlash(rel)))
	}
}
