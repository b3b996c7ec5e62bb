package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/jenkins-bootstrap/internal/config"
	"github.com/oshokin/jenkins-bootstrap/internal/execute"
	"github.com/oshokin/jenkins-bootstrap/internal/logger"
)

// Manager wraps the host package manager (dnf) and rpm key handling.
type Manager struct {
	// runner executes dnf and rpm commands.
	runner execute.Runner
	// client fetches repository descriptors; swapped in tests.
	client *http.Client
	// timeout bounds individual package-manager commands.
	timeout time.Duration
	// dryRun logs commands without executing them.
	dryRun bool
}

const (
	// dnfCommand and rpmCommand are the package-manager binaries used on
	// enterprise-linux style hosts.
	dnfCommand = "dnf"
	rpmCommand = "rpm"

	// descriptorFetchTimeout bounds a single repository descriptor download.
	descriptorFetchTimeout = 30 * time.Second
)

var (
	// errNoKeyImported is returned when none of the GPG key URLs import.
	errNoKeyImported = errors.New("no GPG key could be imported")
	// errBadHTTPStatus is returned for non-200 descriptor responses.
	errBadHTTPStatus = errors.New("unexpected http status")
)

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the descriptor fetch client.
func WithHTTPClient(client *http.Client) Option {
	return func(m *Manager) {
		m.client = client
	}
}

// WithTimeout bounds individual package-manager commands.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithDryRun logs commands without executing them.
func WithDryRun(dryRun bool) Option {
	return func(m *Manager) {
		m.dryRun = dryRun
	}
}

// New returns a Manager backed by the provided command runner.
func New(runner execute.Runner, opts ...Option) *Manager {
	m := &Manager{
		runner:  runner,
		client:  &http.Client{Timeout: descriptorFetchTimeout},
		timeout: config.DefaultCommandTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Update upgrades all installed OS packages.
func (m *Manager) Update(ctx context.Context) error {
	if _, err := m.run(ctx, dnfCommand, "update", "-y"); err != nil {
		return fmt.Errorf("update packages: %w", err)
	}

	return nil
}

// Install installs the named packages from configured repositories.
func (m *Manager) Install(ctx context.Context, packages ...string) error {
	args := append([]string{"install", "-y"}, packages...)
	if _, err := m.run(ctx, dnfCommand, args...); err != nil {
		return fmt.Errorf("install packages: %w", err)
	}

	return nil
}

// InstallLocal installs a package from a local RPM file, resolving its
// dependencies from configured repositories.
func (m *Manager) InstallLocal(ctx context.Context, path string) error {
	if _, err := m.run(ctx, dnfCommand, "install", "-y", path); err != nil {
		return fmt.Errorf("install local package: %w", err)
	}

	return nil
}

// ImportKey imports the first GPG key that can be fetched from the provided
// URLs. Key URLs change upstream from time to time, so each one is tried
// before giving up.
func (m *Manager) ImportKey(ctx context.Context, keyURLs []string) error {
	var lastErr error

	for _, keyURL := range keyURLs {
		if _, err := m.run(ctx, rpmCommand, "--import", keyURL); err != nil {
			logger.WarnKV(ctx, "GPG key import failed", "url", keyURL, "error", err)
			lastErr = err

			continue
		}

		logger.InfoKV(ctx, "Imported GPG key", "url", keyURL)

		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %w", errNoKeyImported, lastErr)
	}

	return errNoKeyImported
}

// RegisterRepo downloads the repository descriptor to repoPath. Any fetch
// failure, from DNS errors to 404s, falls back to writing fallbackContent
// instead of aborting: the descriptor endpoint is a known flaky dependency
// and its stable content is carried in the profile.
func (m *Manager) RegisterRepo(ctx context.Context, repoURL, repoPath, fallbackContent string) error {
	if m.dryRun {
		logger.InfoKV(ctx, "Dry run, repository descriptor not written", "path", repoPath)
		return nil
	}

	content, err := m.fetchDescriptor(ctx, repoURL)
	if err != nil {
		logger.WarnKV(ctx, "Repository descriptor fetch failed, writing manual descriptor",
			"url", repoURL, "error", err)

		content = []byte(fallbackContent)
	}

	if err := os.MkdirAll(filepath.Dir(repoPath), 0o755); err != nil {
		return fmt.Errorf("create repository directory: %w", err)
	}

	if err := os.WriteFile(repoPath, content, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write repository descriptor: %w", err)
	}

	logger.InfoKV(ctx, "Registered package repository", "path", repoPath)

	return nil
}

// fetchDescriptor downloads the descriptor body from the repository URL.
func (m *Manager) fetchDescriptor(ctx context.Context, repoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, repoURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// run executes a package-manager command with the configured timeout.
func (m *Manager) run(ctx context.Context, command string, args ...string) (string, error) {
	return m.runner.Run(ctx, execute.Options{
		Command: command,
		Args:    args,
		Timeout: m.timeout,
		DryRun:  m.dryRun,
	})
}
