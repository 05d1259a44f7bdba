package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/goose-belt/internal/config"
	"github.com/oshokin/goose-belt/internal/service/agent"
	"github.com/oshokin/goose-belt/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// flockPath overrides the flock configuration file.
	flockPath string

	// rootCmd represents the base command for running the agent.
	rootCmd = &cobra.Command{
		Use:   "gbelt-agent",
		Short: "Poll MicroGoose devices and text alarm changes.",
		Long: `Polls every MicroGoose device of the flock and sends a text message whenever
one of its alarms trips or clears.

Devices and the polling interval are read from the flock file ($HOME/.flock.json
by default) and picked up again whenever the file changes. Gateway credentials
come from the settings file or the smsKey and smsNum environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return agent.Run(ctx, &agent.Options{
				ConfigPath: configPath,
				FlockPath:  flockPath,
			})
		},
	}
)

// Execute runs the gbelt-agent CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to settings file")
	rootCmd.Flags().StringVarP(&flockPath, "flock", "f", "", "path to flock configuration file")
}
