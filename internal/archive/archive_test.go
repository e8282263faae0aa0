package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile creates a file with the given contents and mode inside dir.
func writeFile(t *testing.T, dir, name string, contents []byte, perm os.FileMode) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, contents, perm))
	require.NoError(t, os.Chmod(path, perm))

	return path
}

// TestStage_CopiesWithMode ensures the staged copy matches the source bytes and permission bits.
func TestStage_CopiesWithMode(t *testing.T) {
	t.Parallel()

	var (
		srcDir = t.TempDir()
		dstDir = t.TempDir()
		data   = []byte("\x7fELF fake binary")
	)

	src := writeFile(t, srcDir, "kamiya", data, 0o755)

	staged, err := Stage(context.Background(), src, dstDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dstDir, "kamiya"), staged)

	got, err := os.ReadFile(staged)
	require.NoError(t, err)
	require.Equal(t, data, got)

	info, err := os.Stat(staged)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

// TestStage_Failures covers missing sources, directories and a cancelled context.
func TestStage_Failures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Stage(context.Background(), filepath.Join(dir, "missing"), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Stage(context.Background(), dir, t.TempDir())
	require.ErrorIs(t, err, ErrNotRegularFile)

	src := writeFile(t, dir, "kamiya", []byte("payload"), 0o755)

	_, err = Stage(context.Background(), src, dir)
	require.ErrorIs(t, err, errStageOntoSource)

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)

	dst := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Stage(ctx, src, dst)
	require.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(filepath.Join(dst, "kamiya"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestCreate_SingleEntry writes an archive and reads it back.
func TestCreate_SingleEntry(t *testing.T) {
	t.Parallel()

	var (
		dir  = t.TempDir()
		data = bytes.Repeat([]byte("kamiya"), 4096)
	)

	src := writeFile(t, dir, "kamiya", data, 0o755)
	path := filepath.Join(dir, "kamiya-1.2.3-linux-x86_64.tar.xz")

	var progress bytes.Buffer

	require.NoError(t, Create(context.Background(), path, []string{src}, Options{Progress: &progress}))
	require.Equal(t, len(data), progress.Len())

	entries, err := Entries(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "kamiya", entries[0].Name)
	require.Equal(t, int64(len(data)), entries[0].Size)
	require.Equal(t, os.FileMode(0o755), entries[0].Mode.Perm())

	want, err := FileChecksum(src)
	require.NoError(t, err)
	require.Equal(t, want, entries[0].Checksum)

	out := t.TempDir()
	extracted, err := Extract(path, out)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(out, "kamiya")}, extracted)

	got, err := os.ReadFile(extracted[0])
	require.NoError(t, err)
	require.Equal(t, data, got)
}

// TestCreate_Reproducible ensures identical inputs give identical archives.
func TestCreate_Reproducible(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "kamiya", []byte("same bytes"), 0o755)

	first := filepath.Join(dir, "first.tar.xz")
	second := filepath.Join(dir, "second.tar.xz")

	require.NoError(t, Create(context.Background(), first, []string{src}, Options{Reproducible: true}))
	// Only the reproducible header hides the changed mtime.
	stamp := time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, stamp, stamp))
	require.NoError(t, Create(context.Background(), second, []string{src}, Options{Reproducible: true}))

	a, err := os.ReadFile(first)
	require.NoError(t, err)

	b, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

// TestCreate_FailureRemovesPartialArchive verifies no archive remains after a failed write.
func TestCreate_FailureRemovesPartialArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.tar.xz")

	err := Create(context.Background(), path, []string{filepath.Join(dir, "missing")}, Options{})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.ErrorIs(t, Create(context.Background(), path, nil, Options{}), errNoFiles)
}

// TestEntries_NotAnArchive rejects files that are not xz streams.
func TestEntries_NotAnArchive(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "plain.tar.xz", []byte("plain text"), 0o644)

	_, err := Entries(path)
	require.Error(t, err)
}
