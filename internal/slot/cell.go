// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package slot caches per-file load results across compilation passes.
//
// Each file gets a Slot with one Cell for its decoded source and one for its
// raw bytes. A cell loads at most once per pass and decodes again only when
// the fingerprint of the loaded bytes changed since the previous pass.
package slot

import (
	"crypto/sha256"
)

// Fingerprint identifies a load result: the bytes on success or the error
// text on failure.
type Fingerprint [sha256.Size]byte

// Fingerprint domains keep "bytes equal to an error message" distinct from
// the error itself.
const (
	domainBytes byte = 0
	domainError byte = 1
)

func fingerprint(data []byte, err error) Fingerprint {
	h := sha256.New()
	if err != nil {
		h.Write([]byte{domainError})
		h.Write([]byte(err.Error()))
	} else {
		h.Write([]byte{domainBytes})
		h.Write(data)
	}
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// Loader reads the raw bytes of a file.
type Loader func() ([]byte, error)

// Decoder turns raw bytes into a value. prev is the value cached for the
// previous fingerprint, or nil, so decoders can update it incrementally.
type Decoder[T any] func(data []byte, prev *T) (T, error)

// Cell is a lazily computed, fingerprinted value. The zero value is empty.
// Cell is not safe for concurrent use; Cache serializes access.
type Cell[T any] struct {
	accessed    bool
	fingerprint Fingerprint
	hasValue    bool // A load has happened at least once
	value       T
	err         error
}

// GetOrInit returns the cell's value for the current pass.
//
// If the cell was already accessed this pass the cached result (value or
// error) is returned without calling load. Otherwise load runs, and decode
// runs only when the fingerprint differs from the cached one.
func (c *Cell[T]) GetOrInit(load Loader, decode Decoder[T]) (T, error) {
	if c.accessed && c.hasValue {
		return c.value, c.err
	}
	c.accessed = true

	data, loadErr := load()
	fp := fingerprint(data, loadErr)
	if c.hasValue && fp == c.fingerprint {
		return c.value, c.err
	}

	var prev *T
	if c.hasValue && c.err == nil {
		prev = &c.value
	}

	var value T
	err := loadErr
	if err == nil {
		value, err = decode(data, prev)
	}

	c.fingerprint = fp
	c.hasValue = true
	c.value = value
	c.err = err
	return value, err
}

// Accessed reports whether the cell was read in the current pass.
func (c *Cell[T]) Accessed() bool {
	return c.accessed
}

// Reset marks the cell as not accessed. The cached value and fingerprint
// are kept.
func (c *Cell[T]) Reset() {
	c.accessed = false
}
