package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/kamiya-packager/internal/service/packager"
)

// TestExitCode checks the mapping from error kinds to process status.
func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, exitCode(nil))
	require.Equal(t, exitFailure, exitCode(fmt.Errorf("wrap: %w", packager.ErrMissingArtifact)))
	require.Equal(t, exitManifest, exitCode(fmt.Errorf("wrap: %w", packager.ErrManifest)))
	require.Equal(t, exitFailure, exitCode(packager.ErrArchive))
	require.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

// TestReportError stays silent for a missing build, which the packager already printed.
func TestReportError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	reportError(&buf, packager.ErrMissingArtifact)
	require.Empty(t, buf.String())

	reportError(&buf, fmt.Errorf("%w: decode Cargo.toml", packager.ErrManifest))
	require.Equal(t, "ERROR: manifest error: decode Cargo.toml\n", buf.String())
}

// runInProject changes into a temp project and runs the root command with args.
func runInProject(t *testing.T, manifest string, withBuild bool, args ...string) (int, string, string) {
	t.Helper()

	t.Chdir(t.TempDir())

	if manifest != "" {
		require.NoError(t, os.WriteFile("Cargo.toml", []byte(manifest), 0o600))
	}

	if withBuild {
		require.NoError(t, os.MkdirAll(filepath.Join("target", "release"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join("target", "release", "kamiya"), []byte("\x7fELF kamiya"), 0o755))
	}

	var stdout, stderr bytes.Buffer

	rootCmd.SetArgs(append([]string{}, args...))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	return execute(), stdout.String(), stderr.String()
}

// TestExecute_MissingBuild prints only the make release line and exits with 1.
func TestExecute_MissingBuild(t *testing.T) {
	code, stdout, stderr := runInProject(t, "[package]\nversion = \"1.2.3\"\n", false)

	require.Equal(t, exitFailure, code)
	require.Equal(t, "ERROR: run `make release` first.\n", stdout)
	require.Empty(t, stderr)

	matches, err := filepath.Glob("*.tar.xz")
	require.NoError(t, err)
	require.Empty(t, matches)
}

// TestExecute_Success prints the two report lines and writes the archive.
func TestExecute_Success(t *testing.T) {
	code, stdout, stderr := runInProject(t, "[package]\nversion = \"1.2.3\"\n", true)

	require.Equal(t, 0, code)
	require.Equal(t, "INFO: making package `kamiya-1.2.3-linux-x86_64`\nINFO: Done\n", stdout)
	require.Empty(t, stderr)

	_, err := os.Stat("kamiya-1.2.3-linux-x86_64.tar.xz")
	require.NoError(t, err)

	_, err = os.Stat("kamiya")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestExecute_MissingManifest exits with 2 and reports on stderr only.
func TestExecute_MissingManifest(t *testing.T) {
	code, stdout, stderr := runInProject(t, "", true)

	require.Equal(t, exitManifest, code)
	require.Empty(t, stdout)
	require.True(t, strings.HasPrefix(stderr, "ERROR: manifest error: decode Cargo.toml: "), stderr)
}
