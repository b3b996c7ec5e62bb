package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/jenkins-bootstrap/internal/config"
	"github.com/oshokin/jenkins-bootstrap/internal/logger"
	"github.com/oshokin/jenkins-bootstrap/internal/version"
)

var (
	// configPath stores the path to the provisioning profile YAML file.
	configPath string
	// logLevel controls the logger verbosity.
	logLevel string

	// rootCmd represents the base command for the provisioning CLI.
	rootCmd = &cobra.Command{
		Use:   "jenkins-bootstrap",
		Short: "Provision a Jenkins server on an enterprise-linux host.",
		Long: `One-shot provisioning for a Jenkins CI server on dnf-based hosts (EC2 or bare metal).

The install pipeline updates OS packages, installs the Java runtime and support
tools, registers the Jenkins package repository (writing a manual descriptor if
the remote one is unreachable), installs Jenkins with an ordered version-and-
mirror fallback, writes the service configuration, starts the systemd unit and
waits for it to actually answer before printing the operational summary.

Run with elevated privileges; package and service management require root.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}
)

// Execute runs the jenkins-bootstrap CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup persistent flags shared by all subcommands.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultConfigFilename, "path to provisioning profile")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l",
		"info", "log level (debug, info, warn, error)")
}
