package packager

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/kamiya-packager/internal/archive"
	"github.com/oshokin/kamiya-packager/internal/config"
	"github.com/oshokin/kamiya-packager/internal/logger"
)

// VerifyOptions contains inputs for Verify.
type VerifyOptions struct {
	// Options supplies the manifest, target dir, work dir and stdout.
	Options
	// ArchivePath is the archive to check. Empty means the archive named after the manifest version.
	ArchivePath string
	// BinaryPath is compared byte-for-byte against the archived binary.
	// Empty means the release build when ArchivePath is derived, otherwise no comparison.
	BinaryPath string
	// DescriptionPath, when set, is a release description whose archive checksum must match.
	DescriptionPath string
}

// Verify checks that an archive holds exactly one regular file named kamiya,
// optionally matching a binary on disk and a release description.
func Verify(ctx context.Context, opts *VerifyOptions) error {
	ctx = logger.WithName(ctx, "kamiya-packager")

	var v VerifyOptions
	if opts != nil {
		v = *opts
	}

	v.Options = withDefaults(&v.Options)

	archivePath, binaryPath := v.ArchivePath, v.BinaryPath

	if archivePath == "" {
		version, err := LoadVersion(v.resolve(v.ManifestPath))
		if err != nil {
			return err
		}

		desc, err := config.NewDescriptor(version, v.TargetDir)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrManifest, err)
		}

		archivePath = desc.ArchiveName()

		if binaryPath == "" {
			if _, err = os.Stat(v.resolve(desc.BinaryPath())); err == nil {
				binaryPath = desc.BinaryPath()
			}
		}
	}

	archivePath = v.resolve(archivePath)

	entries, err := archive.Entries(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVerify, archivePath, err)
	}

	if len(entries) != 1 {
		return fmt.Errorf("%w: %s holds %d entries, want 1", ErrVerify, archivePath, len(entries))
	}

	entry := entries[0]
	if entry.Name != config.BinaryName || !entry.Mode.IsRegular() {
		return fmt.Errorf("%w: unexpected entry %q (%s)", ErrVerify, entry.Name, entry.Mode)
	}

	if binaryPath != "" {
		if err = compareChecksum(v.resolve(binaryPath), entry.Checksum); err != nil {
			return err
		}
	}

	if v.DescriptionPath != "" {
		if err = checkDescription(v.resolve(v.DescriptionPath), archivePath); err != nil {
			return err
		}
	}

	logger.DebugKV(ctx, "Archive verified", "archive", archivePath, "size", entry.Size)
	Report(v.Stdout, "INFO: verified `"+filepath.Base(archivePath)+"`")

	return nil
}

func compareChecksum(path string, want []byte) error {
	got, err := archive.FileChecksum(path)
	if err != nil {
		return fmt.Errorf("%w: checksum %s: %w", ErrVerify, path, err)
	}

	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: %s differs from the archived binary", ErrVerify, path)
	}

	return nil
}

var errChecksumMismatch = errors.New("checksum mismatch")

func checkDescription(descriptionPath, archivePath string) error {
	description, err := LoadDescription(descriptionPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerify, err)
	}

	name := filepath.Base(archivePath)

	want, ok := description.Files[name]
	if !ok {
		return fmt.Errorf("%w: %s is not listed in %s", ErrVerify, name, descriptionPath)
	}

	got, err := archive.FileChecksum(archivePath)
	if err != nil {
		return fmt.Errorf("%w: checksum %s: %w", ErrVerify, archivePath, err)
	}

	if base64.StdEncoding.EncodeToString(got) != want {
		return fmt.Errorf("%w: %s: %w", ErrVerify, name, errChecksumMismatch)
	}

	return nil
}
