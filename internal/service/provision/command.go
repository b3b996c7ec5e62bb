package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/jenkins-bootstrap/internal/config"
	"github.com/oshokin/jenkins-bootstrap/internal/execute"
	"github.com/oshokin/jenkins-bootstrap/internal/installer"
	"github.com/oshokin/jenkins-bootstrap/internal/logger"
	"github.com/oshokin/jenkins-bootstrap/internal/metadata"
	"github.com/oshokin/jenkins-bootstrap/internal/pkgmgr"
	"github.com/oshokin/jenkins-bootstrap/internal/readiness"
	"github.com/oshokin/jenkins-bootstrap/internal/service/common"
	"github.com/oshokin/jenkins-bootstrap/internal/sysinit"
)

// Options are inputs accepted by the provisioning entry point.
type Options struct {
	// ConfigPath is the optional path to the profile YAML file.
	ConfigPath string
	// SkipOSUpdate skips the initial full package upgrade.
	SkipOSUpdate bool
	// DryRun logs every command without executing anything.
	DryRun bool
}

// packageManager is the slice of pkgmgr the pipeline needs.
type packageManager interface {
	Update(ctx context.Context) error
	Install(ctx context.Context, packages ...string) error
	ImportKey(ctx context.Context, keyURLs []string) error
	RegisterRepo(ctx context.Context, repoURL, repoPath, fallbackContent string) error
}

// serviceManager is the slice of sysinit the pipeline needs.
type serviceManager interface {
	DaemonReload(ctx context.Context) error
	Enable(ctx context.Context, unit string) error
	Start(ctx context.Context, unit string) error
	IsActive(ctx context.Context, unit string) bool
	Status(ctx context.Context, unit string) (string, error)
}

// fallbackInstaller runs the mirror fallback search.
type fallbackInstaller interface {
	Install(ctx context.Context) (string, error)
}

// addressResolver produces the display address for the summary.
type addressResolver interface {
	PublicAddress(ctx context.Context) string
}

// javaProcessName is the executable behind the Jenkins unit, used as the
// process readiness check.
const javaProcessName = "java"

// runner holds the wired dependencies for a single provisioning execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg      *config.Config
	opts     *Options
	packages packageManager
	services serviceManager
	fallback fallbackInstaller
	resolver addressResolver
	// out receives the final summary.
	out io.Writer
	// processName is the executable required by the readiness probe;
	// empty disables the process check.
	processName string
	// fallbackVersion is set when the mirror fallback picked a version.
	fallbackVersion string
}

// Run executes the provisioning pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "provision")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	r := newRunner(ctx, cfg, opts)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Provisioning failed", "error", err)
		return err
	}

	logger.Info(ctx, "Provisioning completed")

	return nil
}

// newRunner wires the real dependencies for a run.
func newRunner(ctx context.Context, cfg *config.Config, opts *Options) *runner {
	osRunner := execute.NewOSRunner()

	manager := pkgmgr.New(osRunner,
		pkgmgr.WithTimeout(cfg.CommandTimeout),
		pkgmgr.WithDryRun(opts.DryRun))

	systemd := sysinit.New(osRunner, sysinit.WithDryRun(opts.DryRun))

	fallback := installer.New(
		installer.NewHTTPDownloader(),
		manager,
		cfg.PackageName,
		cfg.FallbackVersions,
		[]string{cfg.PrimaryMirror, cfg.SecondaryMirror})

	r := &runner{
		cfg:         cfg,
		opts:        opts,
		packages:    manager,
		services:    systemd,
		fallback:    fallback,
		out:         os.Stdout,
		processName: javaProcessName,
	}

	resolver, err := metadata.NewResolver(ctx, cfg.MetadataEndpoint)
	if err != nil {
		logger.WarnKV(ctx, "Metadata resolver unavailable", "error", err)
	} else {
		r.resolver = resolver
	}

	return r
}

// run executes the pipeline:
// 1) Optional OS package upgrade.
// 2) Runtime package install.
// 3) Repository registration and GPG key import.
// 4) Application install, with the mirror fallback on failure.
// 5) Static application configuration write.
// 6) Service enable and start.
// 7) Readiness wait and summary.
func (r *runner) run(ctx context.Context) error {
	if err := r.prepareHost(ctx); err != nil {
		return err
	}

	if err := r.installApplication(ctx); err != nil {
		return err
	}

	if err := r.writeAppConfig(ctx); err != nil {
		return err
	}

	if err := r.startService(ctx); err != nil {
		return err
	}

	readyErr := r.awaitReady(ctx)

	// The summary is printed even when readiness timed out: the operator
	// needs the troubleshooting commands most in exactly that case.
	r.printSummary(ctx, readyErr == nil)

	return readyErr
}

// prepareHost updates the OS and installs the runtime packages.
func (r *runner) prepareHost(ctx context.Context) error {
	if r.opts.SkipOSUpdate {
		logger.Info(ctx, "Skipping OS package upgrade")
	} else {
		logger.Info(ctx, "Upgrading OS packages")

		if err := r.packages.Update(ctx); err != nil {
			return fmt.Errorf("upgrade OS packages: %w", err)
		}
	}

	logger.InfoKV(ctx, "Installing runtime packages", "packages", r.cfg.RuntimePackages)

	if err := r.packages.Install(ctx, r.cfg.RuntimePackages...); err != nil {
		return fmt.Errorf("install runtime packages: %w", err)
	}

	return nil
}

// installApplication registers the repository and installs the application,
// falling back to the mirror search when the repository install fails.
func (r *runner) installApplication(ctx context.Context) error {
	logger.InfoKV(ctx, "Registering package repository", "url", r.cfg.RepoURL)

	if err := r.packages.RegisterRepo(ctx, r.cfg.RepoURL, r.cfg.RepoPath, r.cfg.RepoFallbackContent); err != nil {
		return fmt.Errorf("register repository: %w", err)
	}

	if err := r.packages.ImportKey(ctx, r.cfg.RepoKeyURLs); err != nil {
		return fmt.Errorf("import repository key: %w", err)
	}

	logger.InfoKV(ctx, "Installing application package", "package", r.cfg.PackageName)

	err := r.packages.Install(ctx, r.cfg.PackageName)
	if err == nil {
		return nil
	}

	logger.WarnKV(ctx, "Repository install failed, trying version fallback",
		"package", r.cfg.PackageName, "error", err)

	version, err := r.fallback.Install(ctx)
	if err != nil {
		if errors.Is(err, installer.ErrExhausted) {
			return fmt.Errorf("install %s: %w", r.cfg.PackageName, err)
		}

		return fmt.Errorf("fallback install: %w", err)
	}

	r.fallbackVersion = version

	return nil
}

// writeAppConfig writes the static application configuration. The content is
// fixed in the profile, so repeated runs produce identical files.
func (r *runner) writeAppConfig(ctx context.Context) error {
	if r.opts.DryRun {
		logger.InfoKV(ctx, "Dry run, application configuration not written", "path", r.cfg.AppConfigPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.cfg.AppConfigPath), 0o755); err != nil {
		return fmt.Errorf("create configuration directory: %w", err)
	}

	err := os.WriteFile(r.cfg.AppConfigPath, []byte(r.cfg.AppConfigContent), config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("write application configuration: %w", err)
	}

	logger.InfoKV(ctx, "Wrote application configuration", "path", r.cfg.AppConfigPath)

	return nil
}

// startService enables and starts the unit.
func (r *runner) startService(ctx context.Context) error {
	if err := r.services.DaemonReload(ctx); err != nil {
		return err
	}

	if err := r.services.Enable(ctx, r.cfg.ServiceName); err != nil {
		return err
	}

	if err := r.services.Start(ctx, r.cfg.ServiceName); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Service enabled and started", "service", r.cfg.ServiceName)

	return nil
}

// awaitReady polls until the service answers or the bounded wait elapses.
func (r *runner) awaitReady(ctx context.Context) error {
	if r.opts.DryRun {
		return nil
	}

	logger.InfoKV(ctx, "Waiting for service readiness",
		"service", r.cfg.ServiceName,
		"max_wait", r.cfg.ReadinessMaxWait.String())

	_, err := readiness.Wait(ctx, &readiness.Options{
		ServiceName: r.cfg.ServiceName,
		Port:        r.cfg.HTTPPort,
		ProcessName: r.processName,
		MaxWait:     r.cfg.ReadinessMaxWait,
		Interval:    r.cfg.ReadinessInterval,
		Service:     r.services,
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", r.cfg.ServiceName, err)
	}

	return nil
}

// printSummary renders the operational report to the configured writer.
func (r *runner) printSummary(ctx context.Context, ready bool) {
	address := "localhost"
	if r.resolver != nil {
		address = r.resolver.PublicAddress(ctx)
	}

	statusOutput, err := r.services.Status(ctx, r.cfg.ServiceName)
	if err != nil {
		logger.WarnKV(ctx, "Unable to capture service status", "error", err)
	}

	summary := &common.Summary{
		ServiceName:      r.cfg.ServiceName,
		URL:              common.ServiceURL(address, r.cfg.HTTPPort),
		CredentialsFile:  r.cfg.CredentialsFile,
		InstalledVersion: r.fallbackVersion,
		Ready:            ready,
		StatusOutput:     statusOutput,
	}

	_, _ = io.WriteString(r.out, summary.Render())
}
