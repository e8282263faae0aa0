package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Entry describes one member of an archive.
type Entry struct {
	// Name is the path stored in the tar header.
	Name string
	// Mode is the permission and type bits from the header.
	Mode os.FileMode
	// Size is the uncompressed length of the member.
	Size int64
	// Checksum is the DefaultChecksumFunction digest of the member contents.
	Checksum []byte
}

// Entries lists the members of the xz-compressed tar archive at path.
func Entries(path string) ([]Entry, error) {
	var entries []Entry

	err := walk(path, func(header *tar.Header, contents io.Reader) error {
		checksum, err := readerChecksum(contents)
		if err != nil {
			return err
		}

		entries = append(entries, Entry{
			Name:     header.Name,
			Mode:     header.FileInfo().Mode(),
			Size:     header.Size,
			Checksum: checksum,
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Extract unpacks regular files from the archive at path into dir.
// Member names must be bare filenames.
func Extract(path, dir string) ([]string, error) {
	var extracted []string

	err := walk(path, func(header *tar.Header, contents io.Reader) error {
		if header.Typeflag != tar.TypeReg {
			return fmt.Errorf("%s: %w", header.Name, ErrNotRegularFile)
		}

		if header.Name != filepath.Base(header.Name) || header.Name == ".." {
			return fmt.Errorf("%w: %q", errUnsafeName, header.Name)
		}

		target := filepath.Join(dir, header.Name)

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, header.FileInfo().Mode().Perm())
		if err != nil {
			return err
		}

		if _, err = io.Copy(out, contents); err != nil {
			_ = out.Close()

			return err
		}

		if err = out.Close(); err != nil {
			return err
		}

		extracted = append(extracted, target)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return extracted, nil
}

var errUnsafeName = errors.New("unsafe member name")

// walk calls fn for every member of the archive at path.
func walk(path string, fn func(header *tar.Header, contents io.Reader) error) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	decompressor, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("open xz stream: %w", err)
	}

	tarball := tar.NewReader(decompressor)

	for {
		header, err := tarball.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar stream: %w", err)
		}

		if err = fn(header, tarball); err != nil {
			return err
		}
	}
}
