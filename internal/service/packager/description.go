package packager

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/kamiya-packager/internal/archive"
	"github.com/oshokin/kamiya-packager/internal/config"
)

// DescriptionFileMode is the mode of the written release description.
const DescriptionFileMode os.FileMode = 0o644

// Description is the optional YAML summary written next to the archive.
type Description struct {
	// Version is the kamiya version read from the manifest.
	Version string `yaml:"version"`
	// Platform is the target platform tag.
	Platform string `yaml:"platform"`
	// Architecture is the target architecture tag.
	Architecture string `yaml:"architecture"`
	// Archive is the archive filename.
	Archive string `yaml:"archive"`
	// Algorithm names the checksum function.
	Algorithm string `yaml:"algorithm"`
	// Files maps filenames to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription computes checksums of the archive and the binary it contains.
func NewDescription(desc *config.Descriptor, archivePath, binaryPath string) (*Description, error) {
	files := make(map[string]string, 2)

	for name, path := range map[string]string{
		desc.ArchiveName(): archivePath,
		desc.BinaryName:    binaryPath,
	} {
		checksum, err := archive.FileChecksum(path)
		if err != nil {
			return nil, fmt.Errorf("checksum %s: %w", name, err)
		}

		files[name] = base64.StdEncoding.EncodeToString(checksum)
	}

	return &Description{
		Version:      desc.Version,
		Platform:     desc.Platform,
		Architecture: desc.Architecture,
		Archive:      desc.ArchiveName(),
		Algorithm:    archive.DefaultChecksumFunction.String(),
		Files:        files,
	}, nil
}

// WriteDescription builds the description and saves it at path.
func WriteDescription(path string, desc *config.Descriptor, archivePath, binaryPath string) error {
	description, err := NewDescription(desc, archivePath, binaryPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	contents, err := yaml.Marshal(description)
	if err != nil {
		return fmt.Errorf("marshal description: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, DescriptionFileMode); err != nil {
		return fmt.Errorf("write description: %w", err)
	}

	return nil
}

// LoadDescription reads a description written by WriteDescription.
func LoadDescription(path string) (*Description, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read description: %w", err)
	}

	var description Description
	if err = yaml.Unmarshal(contents, &description); err != nil {
		return nil, fmt.Errorf("unmarshal description: %w", err)
	}

	return &description, nil
}
