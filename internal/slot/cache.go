// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package slot

import (
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/petar-djukic/typhost/pkg/source"
	"github.com/petar-djukic/typhost/pkg/types"
)

// Slot holds the cached source and raw bytes of one file.
type Slot struct {
	id     types.FileID
	source Cell[*source.Source]
	file   Cell[[]byte]
}

// Accessed reports whether either cell was read in the current pass.
func (s *Slot) Accessed() bool {
	return s.source.Accessed() || s.file.Accessed()
}

func (s *Slot) reset() {
	s.source.Reset()
	s.file.Reset()
}

// Cache maps file identities to slots. It is safe for concurrent use; the
// lock is held for the whole lookup so one identity never loads twice
// within a pass.
type Cache struct {
	mu    sync.Mutex
	slots map[types.FileID]*Slot
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{slots: make(map[types.FileID]*Slot)}
}

func (c *Cache) slot(id types.FileID) *Slot {
	s, ok := c.slots[id]
	if !ok {
		s = &Slot{id: id}
		c.slots[id] = s
	}
	return s
}

// Source returns the decoded source of id, loading it with load when the
// slot has not been read this pass.
func (c *Cache) Source(id types.FileID, load Loader) (*source.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot(id).source.GetOrInit(load, func(data []byte, prev **source.Source) (*source.Source, error) {
		text, err := DecodeUTF8(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		if prev != nil && *prev != nil {
			return (*prev).Replace(text), nil
		}
		return source.New(id, text), nil
	})
}

// File returns the raw bytes of id, loading them with load when the slot
// has not been read this pass.
func (c *Cache) File(id types.FileID, load Loader) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot(id).file.GetOrInit(load, func(data []byte, _ *[]byte) ([]byte, error) {
		return data, nil
	})
}

// ResetPass clears the accessed flag of every slot. Cached values are kept.
func (c *Cache) ResetPass() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.slots {
		s.reset()
	}
}

// Accessed returns the identities read since the last ResetPass, sorted by
// their string form.
func (c *Cache) Accessed() []types.FileID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []types.FileID
	for id, s := range c.slots {
		if s.Accessed() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Len returns the number of slots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// DecodeUTF8 strips a leading byte-order mark and validates the rest.
func DecodeUTF8(data []byte) (string, error) {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if !utf8.Valid(data) {
		return "", types.ErrInvalidEncoding
	}
	return string(data), nil
}
