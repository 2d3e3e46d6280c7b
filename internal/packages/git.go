// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package packages

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/petar-djukic/typhost/pkg/types"
)

// GitDownloader fetches packages from a registry of git repositories, one
// repository per package name, with one tag per version ("v1.2.3").
type GitDownloader struct {
	Registry string // Base URL or directory; the repository is <Registry>/<name>
	Shallow  bool   // Fetch only the tagged commit
}

// RepoURL returns the repository location of spec.
func (d *GitDownloader) RepoURL(spec types.PackageSpec) string {
	return strings.TrimSuffix(d.Registry, "/") + "/" + spec.Name
}

// TagName returns the tag holding the given version.
func TagName(v types.Version) string {
	return "v" + v.String()
}

// Download clones the tagged version into dest and removes the git
// metadata, leaving a plain package directory.
func (d *GitDownloader) Download(ctx context.Context, spec types.PackageSpec, dest string, progress io.Writer) error {
	opts := &gogit.CloneOptions{
		URL:           d.RepoURL(spec),
		ReferenceName: plumbing.NewTagReferenceName(TagName(spec.Version)),
		SingleBranch:  true,
		Progress:      progress,
	}
	if d.Shallow {
		opts.Depth = 1
	}

	if _, err := gogit.PlainCloneContext(ctx, dest, false, opts); err != nil {
		os.RemoveAll(dest)
		return fmt.Errorf("cloning %s at %s: %w", opts.URL, TagName(spec.Version), err)
	}
	if err := os.RemoveAll(filepath.Join(dest, ".git")); err != nil {
		return fmt.Errorf("removing git metadata: %w", err)
	}
	return nil
}
