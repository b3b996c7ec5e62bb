package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/jenkins-bootstrap/internal/service/provision"
)

var (
	// skipOSUpdate skips the initial full package upgrade.
	skipOSUpdate bool
	// dryRun logs commands without executing anything.
	dryRun bool

	// installCmd runs the full provisioning pipeline.
	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Run the full provisioning pipeline.",
		Long: `Update the OS, install the runtime, register the package repository,
install Jenkins (falling back through pinned versions on two mirrors when the
repository install fails), write the service configuration, start the unit and
wait until it answers on its HTTP port.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &provision.Options{
				ConfigPath:   configPath,
				SkipOSUpdate: skipOSUpdate,
				DryRun:       dryRun,
			}

			return provision.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().BoolVar(&skipOSUpdate, "skip-os-update", false,
		"skip the initial OS package upgrade")
	installCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"log commands without executing them")
}
