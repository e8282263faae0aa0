package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrNotRegularFile is returned when a staged or archived path is not a regular file.
var ErrNotRegularFile = errors.New("not a regular file")

var errStageOntoSource = errors.New("staging directory already holds the source")

// Stage copies src into dir under its bare name, preserving the permission bits.
// It returns the path of the staged copy. A failed copy leaves nothing behind.
func Stage(ctx context.Context, src, dir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", src, ErrNotRegularFile)
	}

	staged := filepath.Join(dir, filepath.Base(src))

	if dstInfo, statErr := os.Stat(staged); statErr == nil && os.SameFile(info, dstInfo) {
		return "", fmt.Errorf("%s: %w", src, errStageOntoSource)
	}

	if err = copyFile(ctx, src, staged, info.Mode().Perm()); err != nil {
		_ = os.Remove(staged)

		return "", err
	}

	return staged, nil
}

// copyFile writes the contents of src to dst, truncating dst.
func copyFile(ctx context.Context, src, dst string, perm os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, &contextReader{ctx: ctx, r: in}); err != nil {
		_ = out.Close()

		return err
	}

	if err = out.Close(); err != nil {
		return err
	}

	// OpenFile honours umask, so restore the source bits explicitly.
	return os.Chmod(dst, perm)
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context //nolint:containedctx // Scoped to a single copy.
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}
