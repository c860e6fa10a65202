package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fetcherFor(ts *httptest.Server) *Fetcher {
	// Rewrite every request to the stub server while keeping the real
	// URL-building and header logic in play.
	transport := rewriteTransport{target: ts.URL}

	return NewFetcherWithClient(&http.Client{Transport: transport, Timeout: 5 * time.Second})
}

type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rewritten, err := http.NewRequestWithContext(req.Context(), req.Method, t.target+"?"+req.URL.RawQuery, nil)
	if err != nil {
		return nil, err
	}
	rewritten.Header = req.Header

	return http.DefaultTransport.RoundTrip(rewritten)
}

func TestFetchWritesScratchFile(t *testing.T) {
	var gotUA, gotReferer string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 fake body"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "scratch.pdf")

	var calls int
	onProgress := func(written, total int64) { calls++ }

	if err := fetcherFor(ts).Fetch(context.Background(), "abc123", dest, onProgress); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading scratch file: %v", err)
	}

	if string(data) != "%PDF-1.4 fake body" {
		t.Errorf("scratch file content = %q", data)
	}

	if gotUA == "" || gotReferer != "https://drive.google.com/" {
		t.Errorf("browser-like headers not sent: ua=%q referer=%q", gotUA, gotReferer)
	}
}

func TestFetchRemovesStaleFileFirst(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("fresh"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "scratch.pdf")
	if err := os.WriteFile(dest, []byte("stale content that is longer"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := fetcherFor(ts).Fetch(context.Background(), "abc123", dest, nil); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "fresh" {
		t.Errorf("stale file not replaced, content = %q", data)
	}
}

func TestFetchHTMLWarningPageIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>virus scan warning</html>"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "scratch.pdf")

	err := fetcherFor(ts).Fetch(context.Background(), "abc123", dest, nil)
	if err == nil {
		t.Fatal("expected error for HTML warning page")
	}

	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransferError, got %T: %v", err, err)
	}
}

func TestFetchNonOKStatusIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "scratch.pdf")

	err := fetcherFor(ts).Fetch(context.Background(), "abc123", dest, nil)

	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransferError, got %T: %v", err, err)
	}

	if terr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", terr.StatusCode, http.StatusNotFound)
	}
}

func TestFetchEmptyBodyIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "scratch.pdf")

	err := fetcherFor(ts).Fetch(context.Background(), "abc123", dest, nil)
	if err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestTransferErrorFormatting(t *testing.T) {
	withStatus := &TransferError{StatusCode: 503, Reason: "unexpected status"}
	if withStatus.Error() != "transfer failed (HTTP 503): unexpected status" {
		t.Errorf("Error() = %q", withStatus.Error())
	}

	cause := errors.New("connection reset")
	withoutStatus := &TransferError{Reason: "request failed", Err: cause}
	if withoutStatus.Error() != "transfer failed: request failed" {
		t.Errorf("Error() = %q", withoutStatus.Error())
	}

	if !errors.Is(withoutStatus, cause) {
		t.Error("errors.Is() should find the cause through Unwrap")
	}
}
