// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package world is the virtual view of a project that a compiler reads
// through. It layers editor overlays and seeded files over the slot cache,
// which in turn loads from disk or from prepared packages.
package world

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petar-djukic/typhost/internal/resolve"
	"github.com/petar-djukic/typhost/internal/slot"
	"github.com/petar-djukic/typhost/pkg/engine"
	"github.com/petar-djukic/typhost/pkg/source"
	"github.com/petar-djukic/typhost/pkg/types"
)

// DefaultMain is the entry file used until one is set.
const DefaultMain = "main.typ"

// Options configures a World.
type Options struct {
	Root     string               // Project root (required)
	Main     string               // Entry file relative to Root (default main.typ)
	Packages resolve.PackageStore // Package store (optional)
	Clock    func() time.Time     // Wall clock (default time.Now)
	Logger   zerolog.Logger       // Logger for load failures
}

// World implements engine.World over a project directory.
type World struct {
	resolver *resolve.Resolver
	slots    *slot.Cache
	clock    func() time.Time
	log      zerolog.Logger

	mu              sync.RWMutex
	main            types.FileID
	overlays        map[types.FileID]*source.Source
	overlayAccessed map[types.FileID]bool
	seeded          map[types.FileID][]byte
	idToPath        map[types.FileID]string
	pathToID        map[string]types.FileID
	passCtx         context.Context
	now             time.Time
	nowSet          bool
}

var _ engine.World = (*World)(nil)

// New creates a World rooted at opts.Root.
func New(opts Options) *World {
	if opts.Main == "" {
		opts.Main = DefaultMain
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	root := opts.Root
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &World{
		resolver:        resolve.New(root, opts.Packages),
		slots:           slot.NewCache(),
		clock:           opts.Clock,
		log:             opts.Logger,
		main:            types.ProjectFile(opts.Main),
		overlays:        make(map[types.FileID]*source.Source),
		overlayAccessed: make(map[types.FileID]bool),
		seeded:          make(map[types.FileID][]byte),
		idToPath:        make(map[types.FileID]string),
		pathToID:        make(map[string]types.FileID),
		passCtx:         context.Background(),
	}
}

// Root returns the absolute project root.
func (w *World) Root() string {
	return w.resolver.Root()
}

// Main returns the entry file.
func (w *World) Main() types.FileID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.main
}

// SetMain changes the entry file.
func (w *World) SetMain(id types.FileID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.main = id
}

// Source returns the decoded text of id. Overlays take precedence over
// cached or on-disk content.
func (w *World) Source(id types.FileID) (*source.Source, error) {
	if src, ok := w.overlay(id); ok {
		return src, nil
	}
	src, err := w.slots.Source(id, w.loader(id))
	if err != nil {
		w.log.Debug().Err(err).Stringer("file", id).Msg("source unavailable")
	}
	return src, err
}

// File returns the raw bytes of id.
func (w *World) File(id types.FileID) ([]byte, error) {
	if src, ok := w.overlay(id); ok {
		return []byte(src.Text()), nil
	}
	return w.slots.File(id, w.loader(id))
}

// Today returns the date of the pass clock. The clock is read once per pass
// so every call within a compilation agrees.
func (w *World) Today(offset *int) (time.Time, bool) {
	w.mu.Lock()
	if !w.nowSet {
		w.now = w.clock()
		w.nowSet = true
	}
	now := w.now
	w.mu.Unlock()

	if offset == nil {
		now = now.Local()
	} else {
		if *offset < -24 || *offset > 24 {
			return time.Time{}, false
		}
		now = now.In(time.FixedZone("", *offset*3600))
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
}

// RegisterOverlay installs text as the content of id and makes id the
// entry file. A previous overlay for id is updated in place.
func (w *World) RegisterOverlay(id types.FileID, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setOverlay(id, text)
	w.main = id
}

// UpdateOverlay installs text as the content of id without changing the
// entry file.
func (w *World) UpdateOverlay(id types.FileID, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setOverlay(id, text)
}

func (w *World) setOverlay(id types.FileID, text string) {
	if prev, ok := w.overlays[id]; ok {
		w.overlays[id] = prev.Replace(text)
		return
	}
	w.overlays[id] = source.New(id, text)
}

// RemoveOverlay drops the overlay for id so disk content is used again.
func (w *World) RemoveOverlay(id types.FileID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.overlays, id)
	delete(w.overlayAccessed, id)
}

// RegisterFile seeds the content of id. Seeded content is fingerprinted
// like disk content, so re-registering identical bytes does not invalidate
// the decoded source.
func (w *World) RegisterFile(id types.FileID, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seeded[id] = data
}

// RegisterFileAtPath seeds a project file and records its host path.
func (w *World) RegisterFileAtPath(name, path string, data []byte) types.FileID {
	id := types.ProjectFile(name)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seeded[id] = data
	w.recordPath(id, path)
	return id
}

// RegisterPath records the host path of id without seeding content.
func (w *World) RegisterPath(id types.FileID, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recordPath(id, path)
}

func (w *World) recordPath(id types.FileID, path string) {
	path = filepath.Clean(path)
	w.idToPath[id] = path
	w.pathToID[path] = id
}

// LookupIdentityForPath returns the identity registered for a host path.
func (w *World) LookupIdentityForPath(path string) (types.FileID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.pathToID[filepath.Clean(path)]
	return id, ok
}

// LookupPathForIdentity returns the host path registered for id.
func (w *World) LookupPathForIdentity(id types.FileID) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.idToPath[id]
	return p, ok
}

// IdentityFor maps a host path to an identity: the registered one if any,
// otherwise the project file at the path's position below the root.
func (w *World) IdentityFor(path string) (types.FileID, bool) {
	if id, ok := w.LookupIdentityForPath(path); ok {
		return id, true
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(w.Root(), path)
	}
	rel, err := filepath.Rel(w.Root(), abs)
	if err != nil {
		return types.FileID{}, false
	}
	vpath := types.NewVirtualPath(rel)
	if vpath.Escapes() {
		return types.FileID{}, false
	}
	return types.NewFileID(nil, vpath), true
}

// BeginPass starts a compilation pass: accessed flags and the pass clock
// are reset, cached content is kept. ctx bounds disk and package loads
// made during the pass.
func (w *World) BeginPass(ctx context.Context) {
	w.slots.ResetPass()
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.overlayAccessed)
	w.nowSet = false
	if ctx == nil {
		ctx = context.Background()
	}
	w.passCtx = ctx
}

// EndPass detaches the pass context so loads made by later queries are not
// bound to a finished compilation.
func (w *World) EndPass() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.passCtx = context.Background()
}

// Dependencies returns the host paths of every file accessed since the
// last BeginPass, sorted. Files without a host path are skipped, and
// packages are never fetched.
func (w *World) Dependencies() []string {
	ids := w.slots.Accessed()
	w.mu.RLock()
	for id := range w.overlayAccessed {
		ids = append(ids, id)
	}
	w.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	var paths []string
	for _, id := range ids {
		p, ok := w.LookupPathForIdentity(id)
		if !ok {
			if p, ok = w.resolver.LocalPath(id); !ok {
				continue
			}
		}
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// CachedFiles returns the number of slots in the cache.
func (w *World) CachedFiles() int {
	return w.slots.Len()
}

func (w *World) overlay(id types.FileID) (*source.Source, bool) {
	w.mu.RLock()
	src, ok := w.overlays[id]
	w.mu.RUnlock()
	if !ok {
		return nil, false
	}
	w.mu.Lock()
	w.overlayAccessed[id] = true
	w.mu.Unlock()
	return src, true
}

func (w *World) loader(id types.FileID) slot.Loader {
	return func() ([]byte, error) {
		w.mu.RLock()
		data, seeded := w.seeded[id]
		ctx := w.passCtx
		w.mu.RUnlock()
		if seeded {
			return data, nil
		}
		return w.resolver.Read(ctx, id)
	}
}
