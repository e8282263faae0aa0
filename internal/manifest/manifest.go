package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// cargoManifest is the subset of Cargo.toml consulted for the version.
type cargoManifest struct {
	// Package is the [package] table.
	Package *packageTable `toml:"package"`
	// Workspace is the [workspace] table, used when the version is inherited.
	Workspace *workspaceTable `toml:"workspace"`
}

// packageTable holds package.version, which is either a string or
// an inline table such as { workspace = true }.
type packageTable struct {
	Version any `toml:"version"`
}

type workspaceTable struct {
	Package *struct {
		Version string `toml:"version"`
	} `toml:"package"`
}

var (
	errNoPackageTable     = errors.New("missing [package] table")
	errNoVersion          = errors.New("missing package.version")
	errEmptyVersion       = errors.New("package.version is empty")
	errNoWorkspaceVersion = errors.New("package.version is inherited but workspace.package.version is missing")
	errUnexpectedVersion  = errors.New("package.version is neither a string nor { workspace = true }")
)

// LoadVersion returns package.version from the manifest at path.
func LoadVersion(path string) (string, error) {
	var doc cargoManifest
	if _, err := toml.DecodeFile(filepath.Clean(path), &doc); err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	version, err := resolveVersion(&doc)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	return version, nil
}

// ParseVersion is LoadVersion for in-memory manifest contents.
func ParseVersion(contents string) (string, error) {
	var doc cargoManifest
	if _, err := toml.Decode(contents, &doc); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	return resolveVersion(&doc)
}

func resolveVersion(doc *cargoManifest) (string, error) {
	if doc.Package == nil {
		return "", errNoPackageTable
	}

	switch value := doc.Package.Version.(type) {
	case nil:
		return "", errNoVersion
	case string:
		version := strings.TrimSpace(value)
		if version == "" {
			return "", errEmptyVersion
		}

		return version, nil
	case map[string]any:
		// version.workspace = true
		if inherit, _ := value["workspace"].(bool); !inherit {
			return "", fmt.Errorf("%w: %v", errUnexpectedVersion, value)
		}

		if doc.Workspace == nil || doc.Workspace.Package == nil {
			return "", errNoWorkspaceVersion
		}

		version := strings.TrimSpace(doc.Workspace.Package.Version)
		if version == "" {
			return "", errNoWorkspaceVersion
		}

		return version, nil
	default:
		return "", fmt.Errorf("%w: got %T", errUnexpectedVersion, value)
	}
}
