package sysinit

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/jenkins-bootstrap/internal/execute"
)

// Systemd manages services through systemctl.
type Systemd struct {
	// runner executes systemctl commands.
	runner execute.Runner
	// timeout bounds individual systemctl invocations.
	timeout time.Duration
	// dryRun logs commands without executing them.
	dryRun bool
}

// systemctlCommand is the service manager binary.
const systemctlCommand = "systemctl"

// defaultTimeout bounds systemctl calls, which are quick compared to package installs.
const defaultTimeout = time.Minute

// Option customizes a Systemd.
type Option func(*Systemd)

// WithTimeout bounds individual systemctl invocations.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Systemd) {
		s.timeout = timeout
	}
}

// WithDryRun logs commands without executing them.
func WithDryRun(dryRun bool) Option {
	return func(s *Systemd) {
		s.dryRun = dryRun
	}
}

// New returns a Systemd backed by the provided command runner.
func New(runner execute.Runner, opts ...Option) *Systemd {
	s := &Systemd{
		runner:  runner,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DaemonReload reloads unit definitions after package installs.
func (s *Systemd) DaemonReload(ctx context.Context) error {
	if _, err := s.run(ctx, "daemon-reload"); err != nil {
		return fmt.Errorf("daemon reload: %w", err)
	}

	return nil
}

// Enable marks the unit to start at boot.
func (s *Systemd) Enable(ctx context.Context, unit string) error {
	if _, err := s.run(ctx, "enable", unit); err != nil {
		return fmt.Errorf("enable %s: %w", unit, err)
	}

	return nil
}

// Start starts the unit now.
func (s *Systemd) Start(ctx context.Context, unit string) error {
	if _, err := s.run(ctx, "start", unit); err != nil {
		return fmt.Errorf("start %s: %w", unit, err)
	}

	return nil
}

// IsActive reports whether the unit is currently active.
// Dry-run mode reports active so the pipeline can proceed.
func (s *Systemd) IsActive(ctx context.Context, unit string) bool {
	_, err := s.run(ctx, "is-active", "--quiet", unit)

	return err == nil
}

// Status returns the human-readable unit status for the summary.
// systemctl exits non-zero for inactive units, so the captured output is
// returned even when the command fails.
func (s *Systemd) Status(ctx context.Context, unit string) (string, error) {
	output, err := s.run(ctx, "status", "--no-pager", unit)
	if err != nil {
		if output != "" {
			return output, nil
		}

		return "", fmt.Errorf("status %s: %w", unit, err)
	}

	return output, nil
}

// run executes a systemctl subcommand with the configured timeout.
func (s *Systemd) run(ctx context.Context, args ...string) (string, error) {
	return s.runner.Run(ctx, execute.Options{
		Command: systemctlCommand,
		Args:    args,
		Timeout: s.timeout,
		DryRun:  s.dryRun,
	})
}
