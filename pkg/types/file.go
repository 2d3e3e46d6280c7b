// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the shared identity, diagnostic and navigation types
// used across typhost.
package types

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Version is a semantic package version.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses "major.minor.patch".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: version %q must be major.minor.patch", ErrInvalidPackageSpec, s)
	}
	var nums [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("%w: version component %q: %v", ErrInvalidPackageSpec, p, err)
		}
		nums[i] = uint32(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// PackageSpec names a remote package: @namespace/name:version.
// The zero value means "no package" (the project itself).
type PackageSpec struct {
	Namespace string
	Name      string
	Version   Version
}

// IsZero reports whether the spec is the empty "no package" value.
func (p PackageSpec) IsZero() bool {
	return p.Namespace == "" && p.Name == ""
}

func (p PackageSpec) String() string {
	return fmt.Sprintf("@%s/%s:%s", p.Namespace, p.Name, p.Version)
}

// ParsePackageSpec parses "@namespace/name:major.minor.patch".
func ParsePackageSpec(s string) (PackageSpec, error) {
	rest, ok := strings.CutPrefix(s, "@")
	if !ok {
		return PackageSpec{}, fmt.Errorf("%w: %q must start with @", ErrInvalidPackageSpec, s)
	}
	ns, rest, ok := strings.Cut(rest, "/")
	if !ok || ns == "" {
		return PackageSpec{}, fmt.Errorf("%w: %q is missing a namespace", ErrInvalidPackageSpec, s)
	}
	name, ver, ok := strings.Cut(rest, ":")
	if !ok || name == "" {
		return PackageSpec{}, fmt.Errorf("%w: %q is missing a name or version", ErrInvalidPackageSpec, s)
	}
	v, err := ParseVersion(ver)
	if err != nil {
		return PackageSpec{}, err
	}
	return PackageSpec{Namespace: ns, Name: name, Version: v}, nil
}

// VirtualPath is a slash-separated path relative to a project or package
// root. Leading ".." components are preserved so that escapes can be
// detected when the path is resolved.
type VirtualPath string

// NewVirtualPath cleans p into a root-relative virtual path. Both "/a/b"
// and "a/b" name the same file.
func NewVirtualPath(p string) VirtualPath {
	p = filepath.ToSlash(p)
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return VirtualPath(".")
	}
	return VirtualPath(path.Clean(p))
}

// String renders the path rooted at "/".
func (v VirtualPath) String() string {
	if v == "." || v == "" {
		return "/"
	}
	return "/" + string(v)
}

// Escapes reports whether the path climbs above its root.
func (v VirtualPath) Escapes() bool {
	return v == ".." || strings.HasPrefix(string(v), "../")
}

// Resolve joins the path to root. It returns false when the result would
// lie outside root.
func (v VirtualPath) Resolve(root string) (string, bool) {
	if v.Escapes() {
		return "", false
	}
	joined := filepath.Join(root, filepath.FromSlash(string(v)))
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}

// Join resolves rel against the directory containing v. A rel starting with
// "/" is taken relative to the root instead.
func (v VirtualPath) Join(rel string) VirtualPath {
	if strings.HasPrefix(rel, "/") {
		return NewVirtualPath(rel)
	}
	dir := path.Dir(string(v))
	return VirtualPath(path.Clean(path.Join(dir, rel)))
}

// Ext returns the file extension including the dot.
func (v VirtualPath) Ext() string {
	return path.Ext(string(v))
}

// FileID identifies a file within the project or within a package. Two ids
// are equal iff both the package and the virtual path are equal, which makes
// FileID usable as a map key.
type FileID struct {
	pkg   PackageSpec
	vpath VirtualPath
}

// NewFileID creates an identity. A nil pkg means the file belongs to the
// project itself.
func NewFileID(pkg *PackageSpec, vpath VirtualPath) FileID {
	id := FileID{vpath: vpath}
	if pkg != nil {
		id.pkg = *pkg
	}
	return id
}

// ProjectFile is shorthand for a project-local identity.
func ProjectFile(p string) FileID {
	return FileID{vpath: NewVirtualPath(p)}
}

// Package returns the package the file belongs to, if any.
func (id FileID) Package() (PackageSpec, bool) {
	return id.pkg, !id.pkg.IsZero()
}

// VPath returns the virtual path of the file.
func (id FileID) VPath() VirtualPath {
	return id.vpath
}

// Join resolves rel relative to this file, staying within the same package.
func (id FileID) Join(rel string) FileID {
	return FileID{pkg: id.pkg, vpath: id.vpath.Join(rel)}
}

func (id FileID) String() string {
	if id.pkg.IsZero() {
		return id.vpath.String()
	}
	return id.pkg.String() + id.vpath.String()
}

// MarshalText renders the identity for JSON and logs.
func (id FileID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
