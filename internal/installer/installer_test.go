package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDownloader serves candidates from an in-memory set of available URLs
// and records every request in order.
type fakeDownloader struct {
	available map[string]string
	requested []string
	// partial, when true, leaves a partial file behind on failure to make
	// sure the fallback loop discards it.
	partial bool
}

func (f *fakeDownloader) Download(_ context.Context, sourceURL, destination string) error {
	f.requested = append(f.requested, sourceURL)

	content, ok := f.available[sourceURL]
	if !ok {
		if f.partial {
			_ = os.WriteFile(destination, []byte("partial"), 0o644)
		}

		return errors.New("download failed")
	}

	return os.WriteFile(destination, []byte(content), 0o644)
}

// fakeInstaller records installed paths and optionally rejects them.
type fakeInstaller struct {
	installed []string
	rejectAll bool
}

func (f *fakeInstaller) InstallLocal(_ context.Context, path string) error {
	if f.rejectAll {
		return errors.New("install failed")
	}

	f.installed = append(f.installed, path)

	return nil
}

const (
	primaryMirror   = "https://primary.example/redhat-stable"
	secondaryMirror = "https://secondary.example/redhat-stable"
)

// artifactURL renders the URL a candidate resolves to on a mirror.
func artifactURL(mirror, version string) string {
	return fmt.Sprintf("%s/jenkins-%s-1.1.noarch.rpm", mirror, version)
}

// TestInstallShortCircuitsOnFirstSuccess verifies that once a candidate
// installs, no later mirror or candidate is attempted.
func TestInstallShortCircuitsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	downloader := &fakeDownloader{
		available: map[string]string{
			artifactURL(primaryMirror, "2.462.3"): "rpm-2.462.3",
		},
	}
	target := &fakeInstaller{}

	fallback := New(downloader, target, "jenkins",
		[]string{"2.462.3", "2.462.2"},
		[]string{primaryMirror, secondaryMirror})

	version, err := fallback.Install(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.462.3", version)
	require.Equal(t, []string{artifactURL(primaryMirror, "2.462.3")}, downloader.requested)
	require.Len(t, target.installed, 1)
}

// TestInstallSecondaryMirrorScenario covers the documented end-to-end case:
// primary mirror empty, secondary has only 2.462.2. The routine must succeed
// with 2.462.2 via the secondary mirror after discarding the 2.462.3 partial.
func TestInstallSecondaryMirrorScenario(t *testing.T) {
	t.Parallel()

	downloader := &fakeDownloader{
		available: map[string]string{
			artifactURL(secondaryMirror, "2.462.2"): "rpm-2.462.2",
		},
		partial: true,
	}
	target := &fakeInstaller{}

	fallback := New(downloader, target, "jenkins",
		[]string{"2.462.3", "2.462.2"},
		[]string{primaryMirror, secondaryMirror})

	version, err := fallback.Install(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.462.2", version)

	// Attempt order: 2.462.3 on both mirrors, then 2.462.2 primary, then
	// 2.462.2 secondary which succeeds.
	require.Equal(t, []string{
		artifactURL(primaryMirror, "2.462.3"),
		artifactURL(secondaryMirror, "2.462.3"),
		artifactURL(primaryMirror, "2.462.2"),
		artifactURL(secondaryMirror, "2.462.2"),
	}, downloader.requested)
}

// TestInstallExhaustionLeavesNoArtifacts verifies the total-failure contract:
// ErrExhausted is returned and no partial download remains on disk.
func TestInstallExhaustionLeavesNoArtifacts(t *testing.T) {
	t.Parallel()

	downloader := &fakeDownloader{partial: true}
	target := &fakeInstaller{}

	fallback := New(downloader, target, "jenkins",
		[]string{"2.462.3", "2.462.2"},
		[]string{primaryMirror, secondaryMirror})

	_, err := fallback.Install(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	require.Empty(t, target.installed)

	// Both candidates were tried on both mirrors.
	require.Len(t, downloader.requested, 4)

	// The download directory is gone along with anything in it.
	require.Empty(t, fallback.workDir)
}

// TestInstallRejectedArtifactMovesOn ensures an artifact that downloads but
// fails to install is discarded and the search continues.
func TestInstallRejectedArtifactMovesOn(t *testing.T) {
	t.Parallel()

	downloader := &fakeDownloader{
		available: map[string]string{
			artifactURL(primaryMirror, "2.462.3"):   "broken-rpm",
			artifactURL(secondaryMirror, "2.462.3"): "broken-rpm",
		},
	}
	target := &fakeInstaller{rejectAll: true}

	fallback := New(downloader, target, "jenkins",
		[]string{"2.462.3"},
		[]string{primaryMirror, secondaryMirror})

	_, err := fallback.Install(context.Background())
	require.ErrorIs(t, err, ErrExhausted)
	require.Len(t, downloader.requested, 2)
}

// TestInstallNoCandidates verifies the sentinel error for an empty list.
func TestInstallNoCandidates(t *testing.T) {
	t.Parallel()

	fallback := New(&fakeDownloader{}, &fakeInstaller{}, "jenkins", nil, []string{primaryMirror})

	_, err := fallback.Install(context.Background())
	require.ErrorIs(t, err, errNoCandidates)
}

// TestHTTPDownloaderFetchesArtifact covers the happy download path.
func TestHTTPDownloaderFetchesArtifact(t *testing.T) {
	t.Parallel()

	const body = "rpm-bytes"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".rpm") {
			_, _ = w.Write([]byte(body))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "jenkins-2.462.3-1.1.noarch.rpm")
	downloader := NewHTTPDownloader(WithClient(server.Client()), WithQuiet(true))

	require.NoError(t, downloader.Download(context.Background(), server.URL+"/jenkins-2.462.3-1.1.noarch.rpm", destination))

	written, err := os.ReadFile(destination)
	require.NoError(t, err)
	require.Equal(t, body, string(written))
}

// TestHTTPDownloaderRejectsBadStatus ensures a 404 is a plain failure and no
// destination file is created.
func TestHTTPDownloaderRejectsBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	destination := filepath.Join(t.TempDir(), "missing.rpm")
	downloader := NewHTTPDownloader(WithClient(server.Client()), WithQuiet(true))

	err := downloader.Download(context.Background(), server.URL+"/missing.rpm", destination)
	require.ErrorIs(t, err, errUnexpectedStatus)

	_, err = os.Stat(destination)
	require.ErrorIs(t, err, os.ErrNotExist)
}
