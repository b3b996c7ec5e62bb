package installer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/jenkins-bootstrap/internal/logger"
)

// Downloader fetches an artifact from a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, sourceURL, destination string) error
}

// PackageInstaller installs a downloaded package file on the host.
type PackageInstaller interface {
	InstallLocal(ctx context.Context, path string) error
}

// Fallback walks an ordered list of version candidates across two mirrors and
// installs the first artifact that both downloads and installs. Candidates
// are evaluated strictly left-to-right, primary mirror before secondary, with
// a short-circuit on the first success.
type Fallback struct {
	// downloader fetches candidate artifacts.
	downloader Downloader
	// installer installs a fetched artifact.
	installer PackageInstaller
	// packageName is the application package the artifacts belong to.
	packageName string
	// candidates are version strings in priority order.
	candidates []string
	// mirrors are base URLs tried in order for each candidate.
	mirrors []string
	// workDir holds downloads until they are installed or discarded.
	workDir string
}

// ErrExhausted is returned when every candidate fails on every mirror.
var ErrExhausted = errors.New("all fallback candidates failed")

// errNoCandidates is returned when the candidate list is empty.
var errNoCandidates = errors.New("no fallback candidates provided")

// New returns a Fallback over the provided candidates and mirrors.
func New(downloader Downloader, installer PackageInstaller, packageName string, candidates, mirrors []string) *Fallback {
	return &Fallback{
		downloader:  downloader,
		installer:   installer,
		packageName: packageName,
		candidates:  candidates,
		mirrors:     mirrors,
	}
}

// Install runs the fallback search and returns the version that installed.
// All download failures are treated alike: a DNS error, a timeout and a 404
// each just move the search to the next mirror or candidate.
func (f *Fallback) Install(ctx context.Context) (string, error) {
	if len(f.candidates) == 0 {
		return "", errNoCandidates
	}

	workDir, err := os.MkdirTemp("", "jenkins-bootstrap-")
	if err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	f.workDir = workDir

	defer f.cleanup(ctx)

	for _, candidate := range f.candidates {
		for _, mirror := range f.mirrors {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			if f.tryCandidate(ctx, candidate, mirror) {
				logger.InfoKV(ctx, "Installed fallback candidate",
					"version", candidate, "mirror", mirror)

				return candidate, nil
			}
		}
	}

	return "", ErrExhausted
}

// tryCandidate downloads and installs one candidate from one mirror.
// Any partial download is removed before reporting failure.
func (f *Fallback) tryCandidate(ctx context.Context, candidate, mirror string) bool {
	artifact := f.artifactName(candidate)

	sourceURL, err := joinURL(mirror, artifact)
	if err != nil {
		logger.WarnKV(ctx, "Skipping malformed mirror URL", "mirror", mirror, "error", err)
		return false
	}

	destination := filepath.Join(f.workDir, artifact)

	logger.InfoKV(ctx, "Trying fallback candidate", "version", candidate, "url", sourceURL)

	if err := f.downloader.Download(ctx, sourceURL, destination); err != nil {
		logger.WarnKV(ctx, "Candidate download failed",
			"version", candidate, "mirror", mirror, "error", err)
		f.discard(ctx, destination)

		return false
	}

	if err := f.installer.InstallLocal(ctx, destination); err != nil {
		logger.WarnKV(ctx, "Candidate install failed",
			"version", candidate, "mirror", mirror, "error", err)
		f.discard(ctx, destination)

		return false
	}

	return true
}

// artifactName renders the RPM filename published on the mirrors.
func (f *Fallback) artifactName(candidate string) string {
	return fmt.Sprintf("%s-%s-1.1.noarch.rpm", f.packageName, candidate)
}

// discard removes a partial or rejected download.
func (f *Fallback) discard(ctx context.Context, destination string) {
	if _, err := os.Stat(destination); err != nil {
		return
	}

	if err := os.Remove(destination); err != nil {
		logger.WarnKV(ctx, "Unable to remove discarded download",
			"path", destination, "error", err)
	}
}

// cleanup removes the download directory and everything left in it.
func (f *Fallback) cleanup(ctx context.Context) {
	if f.workDir == "" {
		return
	}

	if err := os.RemoveAll(f.workDir); err != nil {
		logger.WarnKV(ctx, "Unable to remove download directory",
			"path", f.workDir, "error", err)
	}

	f.workDir = ""
}

// joinURL appends an artifact name to a mirror base URL, normalizing slashes.
func joinURL(base, artifact string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	parsed.Path = path.Join(parsed.Path, artifact)

	return parsed.String(), nil
}
