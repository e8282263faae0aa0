package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Descriptor describes a single packaging run.
// It is built once by NewDescriptor and must not be modified afterwards.
type Descriptor struct {
	// Version is the release version read from the project manifest.
	Version string
	// Platform is the operating system tag used in the archive name.
	Platform string
	// Architecture is the CPU architecture tag used in the archive name.
	Architecture string
	// BuildDir is the build profile directory under TargetDir.
	BuildDir string
	// BinaryName is the bare name of the executable being packaged.
	BinaryName string
	// TargetDir is the root of the build output tree.
	TargetDir string
}

const (
	// DefaultManifestFilename is the project manifest consulted for the version.
	DefaultManifestFilename = "Cargo.toml"

	// DefaultTargetDir is the root of the build output tree.
	DefaultTargetDir = "target"

	// BinaryName is the executable shipped in the archive.
	BinaryName = "kamiya"

	// Platform is the only supported target platform.
	Platform = "linux"

	// Architecture is the only supported target architecture.
	Architecture = "x86_64"

	// BuildDir is the build profile directory holding release binaries.
	BuildDir = "release"

	// ArchiveExtension is appended to the package name to form the archive filename.
	ArchiveExtension = ".tar.xz"

	// DescriptionExtension is appended to the package name to form the release description filename.
	DescriptionExtension = ".yaml"
)

var (
	// errDescriptorIsNotSet is returned when a nil descriptor is provided.
	errDescriptorIsNotSet = errors.New("descriptor is not set")
	// errVersionRequired is returned when the version is empty.
	errVersionRequired = errors.New("version must be provided")
	// errInvalidPathElement is returned when a name would escape its directory.
	errInvalidPathElement = errors.New("must be a single path element")
)

// NewDescriptor builds the descriptor for the given version.
// An empty targetDir falls back to DefaultTargetDir.
func NewDescriptor(version, targetDir string) (*Descriptor, error) {
	if targetDir == "" {
		targetDir = DefaultTargetDir
	}

	desc := &Descriptor{
		Version:      strings.TrimSpace(version),
		Platform:     Platform,
		Architecture: Architecture,
		BuildDir:     BuildDir,
		BinaryName:   BinaryName,
		TargetDir:    targetDir,
	}

	if err := Validate(desc); err != nil {
		return nil, err
	}

	return desc, nil
}

// Validate checks the descriptor for required fields.
func Validate(desc *Descriptor) error {
	if desc == nil {
		return errDescriptorIsNotSet
	}

	if desc.Version == "" {
		return errVersionRequired
	}

	for name, value := range map[string]string{
		"version":      desc.Version,
		"platform":     desc.Platform,
		"architecture": desc.Architecture,
		"build dir":    desc.BuildDir,
		"binary name":  desc.BinaryName,
	} {
		if value == "" || strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
			return fmt.Errorf("invalid %s %q: %w", name, value, errInvalidPathElement)
		}
	}

	return nil
}

// PackageName returns kamiya-{version}-{platform}-{architecture}.
func (d *Descriptor) PackageName() string {
	return d.BinaryName + "-" + d.Version + "-" + d.Platform + "-" + d.Architecture
}

// ArchiveName returns the filename of the archive produced for this descriptor.
func (d *Descriptor) ArchiveName() string {
	return d.PackageName() + ArchiveExtension
}

// DescriptionName returns the filename of the optional release description.
func (d *Descriptor) DescriptionName() string {
	return d.PackageName() + DescriptionExtension
}

// BinaryPath returns the location of the release build, relative to the working directory.
func (d *Descriptor) BinaryPath() string {
	return filepath.Join(d.TargetDir, d.BuildDir, d.BinaryName)
}
