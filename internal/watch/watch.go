// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch reports changes to the files a compilation depended on.
// fsnotify watches directories, so the watcher subscribes to the parent
// directory of every dependency and filters events down to the files.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration // Quiet period before a batch is delivered (default 200ms)
	Logger   zerolog.Logger
}

// Watcher delivers debounced batches of changed dependency paths.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]int // Watched directory -> number of watched files in it
}

// New creates a watcher with nothing watched.
func New(opts Options) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Watcher{
		fs:       fs,
		debounce: opts.Debounce,
		log:      opts.Logger,
		files:    make(map[string]bool),
		dirs:     make(map[string]int),
	}, nil
}

// Sync replaces the watched file set with paths. Directories no longer
// holding a watched file are released.
func (w *Watcher) Sync(paths []string) error {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[filepath.Clean(p)] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for f := range w.files {
		if !want[f] {
			delete(w.files, f)
			w.release(filepath.Dir(f))
		}
	}
	var firstErr error
	for f := range want {
		if w.files[f] {
			continue
		}
		dir := filepath.Dir(f)
		if w.dirs[dir] == 0 {
			if err := w.fs.Add(dir); err != nil {
				w.log.Warn().Err(err).Str("dir", dir).Msg("cannot watch directory")
				if firstErr == nil {
					firstErr = fmt.Errorf("watching %s: %w", dir, err)
				}
				continue
			}
		}
		w.dirs[dir]++
		w.files[f] = true
	}
	return firstErr
}

func (w *Watcher) release(dir string) {
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if err := w.fs.Remove(dir); err != nil {
		w.log.Debug().Err(err).Str("dir", dir).Msg("unwatch failed")
	}
}

// Watched returns the watched files, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(ev.Name)]
}

// Run delivers changes until ctx ends or the watcher is closed. Events
// arriving within the debounce period of each other are merged into one
// sorted batch. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending[filepath.Clean(ev.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")

		case <-fire:
			fire = nil
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			sort.Strings(batch)
			onChange(batch)
		}
	}
}

// Close stops the watcher. A running Run returns nil.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
