package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/kamiya-packager/internal/archive"
	"github.com/oshokin/kamiya-packager/internal/config"
	"github.com/oshokin/kamiya-packager/internal/logger"
	"github.com/oshokin/kamiya-packager/internal/manifest"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ManifestPath is the project manifest (defaults to Cargo.toml).
	ManifestPath string
	// TargetDir is the build output root (defaults to target).
	TargetDir string
	// WorkDir is where the archive is written and the binary is staged (defaults to the current directory).
	// Relative ManifestPath and TargetDir are resolved against it.
	WorkDir string
	// Reproducible strips timestamps and ownership from the archive entry.
	Reproducible bool
	// Describe writes a YAML release description next to the archive.
	Describe bool
	// Progress renders a progress bar on Stderr while compressing.
	Progress bool
	// Stdout receives the report lines (defaults to os.Stdout).
	Stdout io.Writer
	// Stderr receives the progress bar (defaults to os.Stderr).
	Stderr io.Writer
}

// packager runs one packaging workflow for a fixed descriptor.
// It is unexported; callers should use Run.
type packager struct {
	// desc is the immutable descriptor built from the manifest.
	desc *config.Descriptor
	// opts are the caller's options with defaults applied.
	opts Options
}

// Run executes the packaging workflow.
// The manifest is read before the build is checked, so a missing manifest
// is reported as ErrManifest even when the build is missing too.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "kamiya-packager")

	o := withDefaults(opts)

	manifestPath := o.resolve(o.ManifestPath)

	version, err := LoadVersion(manifestPath)
	if err != nil {
		return err
	}

	desc, err := config.NewDescriptor(version, o.TargetDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrManifest, err)
	}

	logger.DebugKV(ctx, "Loaded manifest", "path", manifestPath, "version", desc.Version)

	pkg := &packager{
		desc: desc,
		opts: o,
	}

	return pkg.Run(ctx)
}

// LoadVersion reads package.version from the manifest at path.
// Every failure matches ErrManifest.
func LoadVersion(path string) (string, error) {
	version, err := manifest.LoadVersion(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrManifest, err)
	}

	return version, nil
}

// VerifyBuildExists checks that binaryPath is an existing regular file.
func VerifyBuildExists(binaryPath string) error {
	info, err := os.Stat(binaryPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingArtifact, binaryPath)
	} else if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrMissingArtifact, binaryPath, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrMissingArtifact, binaryPath)
	}

	return nil
}

// MakeArchive stages binaryPath next to archivePath under its bare name, archives
// the staged copy into archivePath and removes the staged copy.
// The staged copy is removed on every path; a failed archive leaves no partial file.
func MakeArchive(ctx context.Context, binaryPath, archivePath string, opts archive.Options) (err error) {
	stageDir := filepath.Dir(archivePath)
	staged := filepath.Join(stageDir, filepath.Base(binaryPath))

	if _, statErr := os.Stat(staged); statErr == nil {
		logger.WarnKV(ctx, "Overwriting existing file with staged binary", "path", staged)
	}

	staged, err = archive.Stage(ctx, binaryPath, stageDir)
	if err != nil {
		return fmt.Errorf("%w: stage binary: %w", ErrArchive, err)
	}

	defer func() {
		rmErr := os.Remove(staged)
		if rmErr == nil || errors.Is(rmErr, os.ErrNotExist) {
			return
		}

		if err == nil {
			err = fmt.Errorf("%w: remove staged copy: %w", ErrArchive, rmErr)

			return
		}

		logger.WarnKV(ctx, "Unable to remove staged binary", "path", staged, "error", rmErr)
	}()

	logger.DebugKV(ctx, "Staged binary", "path", staged)

	if err = archive.Create(ctx, archivePath, []string{staged}, opts); err != nil {
		return fmt.Errorf("%w: write archive: %w", ErrArchive, err)
	}

	return nil
}

// Run checks the build, writes the archive and reports progress on stdout.
func (p *packager) Run(ctx context.Context) error {
	binaryPath := p.opts.resolve(p.desc.BinaryPath())
	if err := VerifyBuildExists(binaryPath); err != nil {
		Report(p.opts.Stdout, MissingArtifactMessage)

		return err
	}

	Report(p.opts.Stdout, StartMessage(p.desc))

	archivePath := p.opts.resolve(p.desc.ArchiveName())
	ctx = logger.WithKV(ctx, "archive", archivePath)

	archiveOptions, finish, err := p.archiveOptions(binaryPath)
	if err != nil {
		return err
	}

	err = MakeArchive(ctx, binaryPath, archivePath, archiveOptions)

	finish()

	if err != nil {
		return err
	}

	logger.Info(ctx, "Archive written")

	if p.opts.Describe {
		descriptionPath := p.opts.resolve(p.desc.DescriptionName())
		if err = WriteDescription(descriptionPath, p.desc, archivePath, binaryPath); err != nil {
			return err
		}

		logger.InfoKV(ctx, "Release description written", "path", descriptionPath)
	}

	Report(p.opts.Stdout, DoneMessage)

	return nil
}

// archiveOptions builds archive.Options and a finish callback for the progress bar.
func (p *packager) archiveOptions(binaryPath string) (archive.Options, func(), error) {
	opts := archive.Options{
		Reproducible: p.opts.Reproducible,
	}

	if !p.opts.Progress {
		return opts, func() {}, nil
	}

	info, err := os.Stat(binaryPath)
	if err != nil {
		return opts, nil, fmt.Errorf("%w: stat %s: %w", ErrArchive, binaryPath, err)
	}

	bar := newProgressBar(p.opts.Stderr, info.Size(), p.desc.ArchiveName())
	opts.Progress = bar

	return opts, func() {
		_ = bar.Finish()
		_, _ = fmt.Fprintln(p.opts.Stderr)
	}, nil
}

// withDefaults returns a copy of opts with empty fields filled in.
func withDefaults(opts *Options) Options {
	var o Options
	if opts != nil {
		o = *opts
	}

	if o.ManifestPath == "" {
		o.ManifestPath = config.DefaultManifestFilename
	}

	if o.TargetDir == "" {
		o.TargetDir = config.DefaultTargetDir
	}

	if o.WorkDir == "" {
		o.WorkDir = "."
	}

	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}

	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}

	return o
}

// resolve joins relative paths onto WorkDir.
func (o *Options) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(o.WorkDir, path)
}
