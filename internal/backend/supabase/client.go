// Package supabase is an HTTP client for the hosted backend: GoTrue-style
// auth lookups, PostgREST reads and RPC calls.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const clientTag = "College Study Mobile App"

// APIError represents a failed backend call.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend error during %s (HTTP %d): %s", e.Operation, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("backend error during %s: %s", e.Operation, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// User is the authenticated identity reported by the backend.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a backend client. The access token is carried as a bearer
// token through an oauth2 static token source; the project api key rides
// along on every request.
func NewClient(baseURL, apiKey, accessToken string) *Client {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    oauth2.NewClient(ctx, tokenSource),
	}
}

// CurrentUser returns the authenticated user, or an APIError when the session
// is missing or expired.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "current_user", c.baseURL+"/auth/v1/user", "", &user); err != nil {
		return nil, err
	}

	if user.ID == "" {
		return nil, &APIError{Operation: "current_user", Message: "no authenticated user"}
	}

	return &user, nil
}

// TrackDownload invokes the rich tracking procedure for the document kind.
// IP address and file size are passed as absent; the server is the source of
// truth for those.
func (c *Client) TrackDownload(ctx context.Context, kind document.Kind, docID, userID string) error {
	payload := map[string]any{
		kind.TrackParam(): docID,
		"p_user_id":       userID,
		"p_ip_address":    nil,
		"p_user_agent":    clientTag,
		"p_file_size":     nil,
	}

	return c.rpc(ctx, kind.TrackRPC(), payload)
}

// IncrementDownloadCount invokes the simpler increment-only procedure, the
// fallback for older server contracts.
func (c *Client) IncrementDownloadCount(ctx context.Context, kind document.Kind, docID string) error {
	return c.rpc(ctx, kind.IncrementRPC(), map[string]any{kind.IncrementParam(): docID})
}

// DownloadCount fetches the authoritative download_count for one document.
func (c *Client) DownloadCount(ctx context.Context, kind document.Kind, docID string) (int64, error) {
	var row struct {
		DownloadCount int64 `json:"download_count"`
	}

	url := fmt.Sprintf("%s/rest/v1/%s?id=eq.%s&select=download_count", c.baseURL, kind.Table(), docID)
	if err := c.get(ctx, "download_count", url, "application/vnd.pgrst.object+json", &row); err != nil {
		return 0, err
	}

	return row.DownloadCount, nil
}

type documentRow struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	FileURL       string `json:"file_url"`
	FileType      string `json:"file_type"`
	DownloadCount int64  `json:"download_count"`
}

// ListDocuments fetches all documents of a kind.
func (c *Client) ListDocuments(ctx context.Context, kind document.Kind) ([]*document.Document, error) {
	logger := logctx.LoggerFromContext(ctx).With("kind", string(kind))

	var rows []documentRow

	url := fmt.Sprintf("%s/rest/v1/%s?select=id,title,file_url,file_type,download_count", c.baseURL, kind.Table())
	if err := c.get(ctx, "list_documents", url, "", &rows); err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, &document.Document{
			ID:            r.ID,
			Title:         r.Title,
			SourceURL:     r.FileURL,
			FileType:      r.FileType,
			DownloadCount: r.DownloadCount,
			Kind:          kind,
		})
	}

	logger.DebugContext(ctx, "fetched documents", "document_count", len(docs))

	return docs, nil
}

// UnreadNotificationCount returns how many unread notifications the user
// has, using a HEAD request with an exact count preference so no rows cross
// the wire.
func (c *Client) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	const operation = "unread_notification_count"

	url := fmt.Sprintf("%s/rest/v1/notifications?user_id=eq.%s&read=eq.false&select=id", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, &APIError{Operation: operation, Message: "failed to build request", Err: err}
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &APIError{Operation: operation, Message: "request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &APIError{Operation: operation, StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	// Content-Range looks like "0-24/42" or "*/0"; the total follows the slash.
	contentRange := resp.Header.Get("Content-Range")

	_, total, found := strings.Cut(contentRange, "/")
	if !found {
		return 0, &APIError{Operation: operation, Message: "missing Content-Range header"}
	}

	count, err := strconv.Atoi(total)
	if err != nil {
		return 0, &APIError{Operation: operation, Message: "unparseable Content-Range total", Err: err}
	}

	return count, nil
}

func (c *Client) rpc(ctx context.Context, fn string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &APIError{Operation: fn, Message: "failed to marshal payload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+fn, bytes.NewReader(body))
	if err != nil {
		return &APIError{Operation: fn, Message: "failed to build request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Operation: fn, Message: "request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Operation: fn, StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	return nil
}

func (c *Client) get(ctx context.Context, operation, url, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &APIError{Operation: operation, Message: "failed to build request", Err: err}
	}

	req.Header.Set("apikey", c.apiKey)

	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Operation: operation, Message: "request failed", Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Operation: operation, StatusCode: resp.StatusCode, Message: readErrorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Operation: operation, Message: "failed to decode response", Err: err}
	}

	return nil
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "no response body"
	}

	return string(data)
}
