package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/jenkins-bootstrap/internal/config"
	"github.com/oshokin/jenkins-bootstrap/internal/execute"
	"github.com/oshokin/jenkins-bootstrap/internal/logger"
	"github.com/oshokin/jenkins-bootstrap/internal/metadata"
	"github.com/oshokin/jenkins-bootstrap/internal/readiness"
	"github.com/oshokin/jenkins-bootstrap/internal/service/common"
	"github.com/oshokin/jenkins-bootstrap/internal/sysinit"
)

// Options are inputs accepted by the status entry point.
type Options struct {
	// ConfigPath is the optional path to the profile YAML file.
	ConfigPath string
}

// serviceManager is the slice of sysinit the status check needs.
type serviceManager interface {
	IsActive(ctx context.Context, unit string) bool
	Status(ctx context.Context, unit string) (string, error)
}

// addressResolver produces the display address for the summary.
type addressResolver interface {
	PublicAddress(ctx context.Context) string
}

// ErrNotReady is returned when the service fails any readiness check, so the
// CLI exits non-zero for scripting.
var ErrNotReady = errors.New("service is not ready")

// Run performs a one-shot readiness check and prints the summary.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "status")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	systemd := sysinit.New(execute.NewOSRunner())

	var resolver addressResolver

	if r, resolverErr := metadata.NewResolver(ctx, cfg.MetadataEndpoint); resolverErr == nil {
		resolver = r
	} else {
		logger.WarnKV(ctx, "Metadata resolver unavailable", "error", resolverErr)
	}

	return report(ctx, cfg, systemd, resolver, os.Stdout)
}

// report runs the probe and renders the summary to the provided writer.
func report(ctx context.Context, cfg *config.Config, services serviceManager, resolver addressResolver, out io.Writer) error {
	state := readiness.Check(ctx, &readiness.Options{
		ServiceName: cfg.ServiceName,
		Port:        cfg.HTTPPort,
		Service:     services,
	})

	statusOutput, err := services.Status(ctx, cfg.ServiceName)
	if err != nil {
		logger.WarnKV(ctx, "Unable to capture service status", "error", err)
	}

	address := "localhost"
	if resolver != nil {
		address = resolver.PublicAddress(ctx)
	}

	summary := &common.Summary{
		ServiceName:     cfg.ServiceName,
		URL:             common.ServiceURL(address, cfg.HTTPPort),
		CredentialsFile: cfg.CredentialsFile,
		Ready:           state.Ready(false),
		StatusOutput:    statusOutput,
	}

	if _, err := io.WriteString(out, summary.Render()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if !state.Ready(false) {
		return fmt.Errorf("%s: %w", cfg.ServiceName, ErrNotReady)
	}

	return nil
}
