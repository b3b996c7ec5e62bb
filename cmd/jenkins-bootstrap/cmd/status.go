package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/jenkins-bootstrap/internal/service/status"
)

// statusCmd re-checks the provisioned service and prints the summary.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the provisioned service and print the summary.",
	Long: `Probe the service unit and its HTTP port once and print the operational
summary. Exits non-zero when the service is not ready.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return status.Run(ctx, &status.Options{ConfigPath: configPath})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(statusCmd)
}
