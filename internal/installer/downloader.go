package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// HTTPDownloader streams artifacts over HTTP into local files with a
// byte-count progress bar.
type HTTPDownloader struct {
	// client performs the requests; swapped in tests.
	client *http.Client
	// quiet suppresses the progress bar.
	quiet bool
}

// downloadTimeout bounds a single artifact download end to end.
const downloadTimeout = 10 * time.Minute

// errUnexpectedStatus is returned for non-200 artifact responses.
var errUnexpectedStatus = errors.New("unexpected http status")

// DownloaderOption customizes an HTTPDownloader.
type DownloaderOption func(*HTTPDownloader)

// WithClient overrides the HTTP client used for downloads.
func WithClient(client *http.Client) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.client = client
	}
}

// WithQuiet disables the progress bar.
func WithQuiet(quiet bool) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.quiet = quiet
	}
}

// NewHTTPDownloader returns a Downloader over plain HTTP.
func NewHTTPDownloader(opts ...DownloaderOption) *HTTPDownloader {
	d := &HTTPDownloader{
		client: &http.Client{Timeout: downloadTimeout},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Download fetches sourceURL into destination. On any failure the partial
// destination file is removed before the error is returned.
func (d *HTTPDownloader) Download(ctx context.Context, sourceURL, destination string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	response, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch artifact: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w", response.Status, errUnexpectedStatus)
	}

	output, err := os.Create(filepath.Clean(destination))
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}

	writer := io.Writer(output)
	if !d.quiet {
		bar := progressbar.DefaultBytes(response.ContentLength, filepath.Base(destination))
		writer = io.MultiWriter(output, bar)
	}

	if _, err = io.Copy(writer, response.Body); err != nil {
		_ = output.Close()
		_ = os.Remove(destination)

		return fmt.Errorf("write artifact: %w", err)
	}

	if err = output.Close(); err != nil {
		_ = os.Remove(destination)

		return fmt.Errorf("close artifact file: %w", err)
	}

	return nil
}
