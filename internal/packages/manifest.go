// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package packages

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/petar-djukic/typhost/pkg/types"
)

// ManifestName is the file name of a package manifest.
const ManifestName = "typst.toml"

// Manifest is the parsed package manifest.
type Manifest struct {
	Package PackageInfo `toml:"package"`
}

// PackageInfo is the [package] table of a manifest.
type PackageInfo struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Entrypoint  string   `toml:"entrypoint"`
	Authors     []string `toml:"authors"`
	License     string   `toml:"license"`
	Description string   `toml:"description"`
}

// ParseManifest decodes manifest bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%s: package name is missing", ManifestName)
	}
	if m.Package.Entrypoint == "" {
		return nil, fmt.Errorf("%s: entrypoint is missing", ManifestName)
	}
	return &m, nil
}

// ReadManifest reads the manifest at the root of a package directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ManifestName, err)
	}
	return ParseManifest(data)
}

// Validate checks that the manifest describes spec.
func (m *Manifest) Validate(spec types.PackageSpec) error {
	if m.Package.Name != spec.Name {
		return fmt.Errorf("manifest names package %q, expected %q", m.Package.Name, spec.Name)
	}
	v, err := types.ParseVersion(m.Package.Version)
	if err != nil {
		return err
	}
	if v != spec.Version {
		return fmt.Errorf("manifest has version %s, expected %s", v, spec.Version)
	}
	return nil
}
