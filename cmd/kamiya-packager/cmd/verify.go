package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/kamiya-packager/internal/service/packager"
)

// newVerifyCommand returns the `verify` subcommand checking a produced archive.
func newVerifyCommand() *cobra.Command {
	var (
		against     string
		description string
	)

	verifyCmd := &cobra.Command{
		Use:   "verify [archive]",
		Short: "Check that an archive holds exactly the kamiya binary.",
		Long: `Checks that the archive contains a single regular file named kamiya.

Without an argument the archive named after the manifest version is checked and
compared against target/release/kamiya when that build exists.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.VerifyOptions{
				Options: packager.Options{
					ManifestPath: manifestPath,
					TargetDir:    targetDir,
					Stdout:       cmd.OutOrStdout(),
					Stderr:       cmd.ErrOrStderr(),
				},
				BinaryPath:      against,
				DescriptionPath: description,
			}

			if len(args) > 0 {
				options.ArchivePath = args[0]
			}

			return packager.Verify(ctx, options)
		},
	}

	verifyCmd.Flags().StringVarP(&against, "against", "a", "", "binary the archived file must match")
	verifyCmd.Flags().StringVarP(&description, "description", "d", "", "release description whose checksum must match")

	return verifyCmd
}
