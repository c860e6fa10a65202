package supabase

import (
	"context"

	"github.com/collegestudy/resource_downloader/internal/document"
	"github.com/collegestudy/resource_downloader/internal/telemetry"
)

const clientName = "supabase"

// InstrumentedClient wraps Client with telemetry.
type InstrumentedClient struct {
	client    *Client
	telemetry *telemetry.Telemetry
}

func NewInstrumentedClient(client *Client, tel *telemetry.Telemetry) *InstrumentedClient {
	return &InstrumentedClient{
		client:    client,
		telemetry: tel,
	}
}

func (c *InstrumentedClient) CurrentUser(ctx context.Context) (*User, error) {
	var result *User

	var err error

	instrumentedErr := c.telemetry.InstrumentClientOperation(ctx, clientName, "current_user", func(ctx context.Context) error {
		result, err = c.client.CurrentUser(ctx)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (c *InstrumentedClient) TrackDownload(ctx context.Context, kind document.Kind, docID, userID string) error {
	return c.telemetry.InstrumentClientOperation(ctx, clientName, "track_download", func(ctx context.Context) error {
		return c.client.TrackDownload(ctx, kind, docID, userID)
	})
}

func (c *InstrumentedClient) IncrementDownloadCount(ctx context.Context, kind document.Kind, docID string) error {
	return c.telemetry.InstrumentClientOperation(ctx, clientName, "increment_download_count", func(ctx context.Context) error {
		return c.client.IncrementDownloadCount(ctx, kind, docID)
	})
}

func (c *InstrumentedClient) DownloadCount(ctx context.Context, kind document.Kind, docID string) (int64, error) {
	var result int64

	var err error

	instrumentedErr := c.telemetry.InstrumentClientOperation(ctx, clientName, "download_count", func(ctx context.Context) error {
		result, err = c.client.DownloadCount(ctx, kind, docID)

		return err
	})

	if instrumentedErr != nil {
		return 0, instrumentedErr
	}

	return result, nil
}

func (c *InstrumentedClient) ListDocuments(ctx context.Context, kind document.Kind) ([]*document.Document, error) {
	var result []*document.Document

	var err error

	instrumentedErr := c.telemetry.InstrumentClientOperation(ctx, clientName, "list_documents", func(ctx context.Context) error {
		result, err = c.client.ListDocuments(ctx, kind)

		return err
	})

	if instrumentedErr != nil {
		return nil, instrumentedErr
	}

	return result, nil
}

func (c *InstrumentedClient) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var result int

	var err error

	instrumentedErr := c.telemetry.InstrumentClientOperation(ctx, clientName, "unread_notification_count", func(ctx context.Context) error {
		result, err = c.client.UnreadNotificationCount(ctx, userID)

		return err
	})

	if instrumentedErr != nil {
		return 0, instrumentedErr
	}

	return result, nil
}
