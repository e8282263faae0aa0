package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ulikunitz/xz"
)

// DefaultFileMode is the mode of the produced archive file.
const DefaultFileMode os.FileMode = 0o644

// Options tunes archive creation.
type Options struct {
	// Reproducible zeroes timestamps and ownership so identical inputs give identical bytes.
	Reproducible bool
	// Progress, when set, receives a copy of every uncompressed byte written to the archive.
	Progress io.Writer
}

var errNoFiles = errors.New("no files to archive")

// Create writes an xz-compressed tar archive at path holding the given files,
// each stored under its bare name. On any failure the partial archive is removed.
func Create(ctx context.Context, path string, files []string, opts Options) (err error) {
	if len(files) == 0 {
		return errNoFiles
	}

	out, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(path)
		}
	}()

	compressor, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("create xz stream: %w", err)
	}

	tarball := tar.NewWriter(compressor)

	for _, file := range files {
		if err = addFile(ctx, tarball, file, opts); err != nil {
			return fmt.Errorf("add %s: %w", filepath.Base(file), err)
		}
	}

	if err = tarball.Close(); err != nil {
		return fmt.Errorf("close tar stream: %w", err)
	}

	if err = compressor.Close(); err != nil {
		return fmt.Errorf("close xz stream: %w", err)
	}

	return out.Close()
}

// addFile appends one regular file to the tar stream.
func addFile(ctx context.Context, tarball *tar.Writer, path string, opts Options) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return ErrNotRegularFile
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	header.Name = filepath.Base(path)
	header.Format = tar.FormatPAX

	if opts.Reproducible {
		header.ModTime = time.Unix(0, 0).UTC()
		header.AccessTime = time.Time{}
		header.ChangeTime = time.Time{}
		header.Uid = 0
		header.Gid = 0
		header.Uname = ""
		header.Gname = ""
		header.Format = tar.FormatUSTAR
	}

	if err = tarball.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	var dst io.Writer = tarball
	if opts.Progress != nil {
		dst = io.MultiWriter(tarball, opts.Progress)
	}

	_, err = io.Copy(dst, &contextReader{ctx: ctx, r: file})

	return err
}
