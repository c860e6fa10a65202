// Package fetch streams remote Drive bytes to a local scratch file.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/collegestudy/resource_downloader/internal/fetch/progress"
	"github.com/collegestudy/resource_downloader/internal/gdrive"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	filePerm = 0644

	// Drive serves an HTML warning page instead of bytes to clients that do
	// not look like a browser.
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	referer        = "https://drive.google.com/"
	acceptLanguage = "en-US,en;q=0.9"

	progressInterval = int64(512 * 1024) // 512KB
)

// TransferError is a fatal failure while streaming remote bytes: network,
// host-side, or filesystem.
type TransferError struct {
	URL        string
	StatusCode int // 0 for non-HTTP failures
	Reason     string
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transfer failed (HTTP %d): %s", e.StatusCode, e.Reason)
	}

	return fmt.Sprintf("transfer failed: %s", e.Reason)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ProgressFunc receives advisory download progress. Implementations must not
// block; the fetcher never waits on them.
type ProgressFunc func(written int64, total int64)

// Fetcher streams a resolved Drive file to a local path.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// NewFetcherWithClient is used by tests to inject a stub HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch builds the direct-download URL for fileID and streams it to destPath.
// Any stale file at destPath is removed first. onProgress may be nil.
func (f *Fetcher) Fetch(ctx context.Context, fileID, destPath string, onProgress ProgressFunc) error {
	logger := logctx.LoggerFromContext(ctx).With("file_id", fileID)
	url := gdrive.DownloadURL(fileID)

	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return &TransferError{URL: url, Reason: "failed to clear stale scratch file", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransferError{URL: url, Reason: "failed to build request", Err: err}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Referer", referer)

	resp, err := f.client.Do(req)
	if err != nil {
		return &TransferError{URL: url, Reason: "request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransferError{URL: url, StatusCode: resp.StatusCode, Reason: "unexpected status"}
	}

	// An HTML response means the host returned its warning page, not the file.
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		return &TransferError{URL: url, StatusCode: resp.StatusCode, Reason: "host returned a warning page instead of file bytes"}
	}

	logger.Info("downloading file", "target", destPath, "file_size", humanize.Bytes(uint64(max(resp.ContentLength, 0))))

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return &TransferError{URL: url, Reason: "failed to create scratch file", Err: err}
	}

	pr := progress.NewReader(resp.Body, resp.ContentLength, progressInterval, onProgress)

	written, err := io.Copy(out, pr)
	if err != nil {
		out.Close()

		return &TransferError{URL: url, Reason: "failed to stream file", Err: err}
	}

	if err := out.Close(); err != nil {
		return &TransferError{URL: url, Reason: "failed to finalize scratch file", Err: err}
	}

	// An empty body with a 200 is still a failed transfer, never a success.
	if written == 0 {
		return &TransferError{URL: url, StatusCode: resp.StatusCode, Reason: "no bytes returned"}
	}

	logger.Info("downloaded file to scratch", "target", destPath, "bytes", humanize.Bytes(uint64(written)))

	return nil
}
