// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package resolve maps file identities to host paths and reads them.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/petar-djukic/typhost/pkg/types"
)

// PackageStore prepares package directories.
type PackageStore interface {
	// Prepare returns the package directory, downloading it if needed.
	Prepare(ctx context.Context, spec types.PackageSpec) (string, error)
	// Lookup returns the package directory only if it is already on disk.
	Lookup(spec types.PackageSpec) (string, bool)
}

// Resolver resolves identities against a project root and a package store.
type Resolver struct {
	root     string
	packages PackageStore
}

// New creates a resolver. packages may be nil, in which case every package
// identity fails with ErrPackageNotFound.
func New(root string, packages PackageStore) *Resolver {
	return &Resolver{root: root, packages: packages}
}

// Root returns the project root.
func (r *Resolver) Root() string {
	return r.root
}

// SystemPath returns the host path of id. Project files resolve against the
// project root; package files against the prepared package directory.
func (r *Resolver) SystemPath(ctx context.Context, id types.FileID) (string, error) {
	root := r.root
	if spec, ok := id.Package(); ok {
		if r.packages == nil {
			return "", fmt.Errorf("%w: %s", types.ErrPackageNotFound, spec)
		}
		dir, err := r.packages.Prepare(ctx, spec)
		if err != nil {
			return "", err
		}
		root = dir
	}
	p, ok := id.VPath().Resolve(root)
	if !ok {
		return "", fmt.Errorf("%w: %s escapes %s", types.ErrAccessDenied, id, root)
	}
	return p, nil
}

// LocalPath returns the host path of id without preparing packages. It
// fails for packages that are not on disk yet.
func (r *Resolver) LocalPath(id types.FileID) (string, bool) {
	root := r.root
	if spec, ok := id.Package(); ok {
		if r.packages == nil {
			return "", false
		}
		dir, ok := r.packages.Lookup(spec)
		if !ok {
			return "", false
		}
		root = dir
	}
	return id.VPath().Resolve(root)
}

// Read returns the bytes of id.
func (r *Resolver) Read(ctx context.Context, id types.FileID) ([]byte, error) {
	p, err := r.SystemPath(ctx, id)
	if err != nil {
		return nil, err
	}
	return ReadFile(p)
}

// ReadFile reads a host file, classifying failures as file access errors.
func ReadFile(p string) ([]byte, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, classify(p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", types.ErrIsDirectory, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, classify(p, err)
	}
	return data, nil
}

func classify(p string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", types.ErrNotFound, p)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", types.ErrAccessDenied, p)
	default:
		return fmt.Errorf("reading %s: %w", p, err)
	}
}
