package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/service/manage"
	"github.com/oshokin/goose-belt/internal/version"
)

var (
	// flockPath overrides the flock configuration file.
	flockPath string

	// rootCmd prints the help text when run without a command.
	rootCmd = &cobra.Command{
		Use:   "gbelt <command> [operands]",
		Short: "Edit the Goose Belt flock configuration.",
		Long: `Goose Belt CLI.

Lists and edits the devices polled by gbelt-agent and the polling interval.
The file is created with defaults on first use; a running agent picks up
every change on its next cycle.`,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List all devices.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := openManager(cmd.Context())
			if err != nil {
				return err
			}

			return m.List(cmd.OutOrStdout())
		},
	}

	pollCmd = &cobra.Command{
		Use:   "poll <seconds>",
		Short: "Set polling interval.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := manage.ParsePollRate(args[0])
			if err != nil {
				return err
			}

			m, err := openManager(cmd.Context())
			if err != nil {
				return err
			}

			return m.SetPollRate(cmd.Context(), seconds)
		},
	}

	addCmd = &cobra.Command{
		Use:   "add <nickname> <host>",
		Short: "Add a device.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // nickname and host.
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(cmd.Context())
			if err != nil {
				return err
			}

			return m.AddDevice(cmd.Context(), args[0], args[1])
		},
	}

	removeCmd = &cobra.Command{
		Use:   "remove <nickname>",
		Short: "Remove a device.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := openManager(cmd.Context())
			if err != nil {
				return err
			}

			_, err = m.RemoveDevice(cmd.Context(), args[0])

			return err
		},
	}
)

// Execute runs the gbelt CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// openManager opens the flock file chosen by --flock or the default location.
func openManager(ctx context.Context) (*manage.Manager, error) {
	path, err := config.ResolveFlockFile(nil, flockPath)
	if err != nil {
		return nil, err
	}

	return manage.Open(ctx, path)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&flockPath, "flock", "f", "", "path to flock configuration file")

	rootCmd.AddCommand(listCmd, pollCmd, addCmd, removeCmd)
}
