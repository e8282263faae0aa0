package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/kamiya-packager/internal/config"
	"github.com/oshokin/kamiya-packager/internal/logger"
	"github.com/oshokin/kamiya-packager/internal/service/packager"
	"github.com/oshokin/kamiya-packager/internal/version"
)

const (
	// exitFailure covers a missing build and any archiving failure.
	exitFailure = 1
	// exitManifest signals that the manifest could not be read.
	exitManifest = 2
)

var (
	// manifestPath to the project manifest.
	manifestPath string
	// targetDir is the build output root.
	targetDir string
	// logLevel for diagnostics on stderr.
	logLevel string
	// reproducible strips timestamps and ownership from the archive entry.
	reproducible bool
	// describe writes a YAML release description next to the archive.
	describe bool
	// progress renders a progress bar while compressing.
	progress bool

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd represents the base command packaging the release build.
	rootCmd = &cobra.Command{
		Use:   "kamiya-packager",
		Short: "Package the kamiya release build into a versioned tar.xz archive.",
		Long: `Reads package.version from Cargo.toml, checks that target/release/kamiya exists
and writes kamiya-{version}-linux-x86_64.tar.xz to the current directory.

Run ` + "`make release`" + ` first. The binary is staged in the current directory while
it is archived and removed afterwards, also when archiving fails.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%w: %q", errUnknownLogLevel, logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ManifestPath: manifestPath,
				TargetDir:    targetDir,
				Reproducible: reproducible,
				Describe:     describe,
				Progress:     progress,
				Stdout:       cmd.OutOrStdout(),
				Stderr:       cmd.ErrOrStderr(),
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the kamiya-packager CLI and exits with a non-zero status on error.
func Execute() {
	if code := execute(); code != 0 {
		os.Exit(code)
	}
}

// execute runs rootCmd, reports its error and returns the exit status.
func execute() int {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}

	return exitCode(err)
}

// reportError prints err unless the packager already reported it on stdout.
func reportError(w io.Writer, err error) {
	if errors.Is(err, packager.ErrMissingArtifact) {
		return
	}

	_, _ = fmt.Fprintf(w, "ERROR: %v\n", err)
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, packager.ErrManifest):
		return exitManifest
	default:
		return exitFailure
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newVerifyCommand())

	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&manifestPath, "manifest", "m", config.DefaultManifestFilename, "path to the project manifest")
	rootCmd.PersistentFlags().
		StringVarP(&targetDir, "target-dir", "t", config.DefaultTargetDir, "build output root holding release/kamiya")
	rootCmd.PersistentFlags().
		StringVarP(&logLevel, "log-level", "l", logger.Level().String(), "diagnostics level on stderr")
	rootCmd.Flags().BoolVar(&reproducible, "reproducible", false, "zero timestamps and ownership in the archive")
	rootCmd.Flags().BoolVar(&describe, "describe", false, "write a YAML release description next to the archive")
	rootCmd.Flags().BoolVar(&progress, "progress", false, "show a progress bar on stderr while compressing")
}
