package persist

import (
	"context"
	"fmt"
)

const downloadAlbum = "Download"

// MediaLibrary is a system media library with asset creation, album
// attachment and a run-time permission gate.
type MediaLibrary interface {
	RequestPermission(ctx context.Context) (bool, error)
	CreateAsset(ctx context.Context, localPath string) (string, error)
	Album(ctx context.Context, name string) (string, bool, error)
	AddToAlbum(ctx context.Context, assetID, albumID string) error
	CreateAlbum(ctx context.Context, name, assetID string) error
}

// MediaLibraryStrategy registers the file as a library asset attached to the
// well-known Download album. A denied permission is an unavailable capability,
// not a failure: every error here falls through to the next strategy.
type MediaLibraryStrategy struct {
	Library MediaLibrary
}

func NewMediaLibraryStrategy(library MediaLibrary) *MediaLibraryStrategy {
	return &MediaLibraryStrategy{Library: library}
}

func (s *MediaLibraryStrategy) Name() string { return "media_library" }

func (s *MediaLibraryStrategy) Available() bool { return s.Library != nil }

func (s *MediaLibraryStrategy) Attempt(ctx context.Context, localPath, suggestedName, mimeType string) (Outcome, error) {
	granted, err := s.Library.RequestPermission(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("media library permission request failed: %w", err)
	}

	if !granted {
		return Outcome{}, fmt.Errorf("media library permission denied")
	}

	assetID, err := s.Library.CreateAsset(ctx, localPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create media asset: %w", err)
	}

	albumID, exists, err := s.Library.Album(ctx, downloadAlbum)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to look up album: %w", err)
	}

	if exists {
		if err := s.Library.AddToAlbum(ctx, assetID, albumID); err != nil {
			return Outcome{}, fmt.Errorf("failed to attach asset to album: %w", err)
		}
	} else if err := s.Library.CreateAlbum(ctx, downloadAlbum, assetID); err != nil {
		return Outcome{}, fmt.Errorf("failed to create album: %w", err)
	}

	return Outcome{Status: StatusSaved, Location: "the Downloads folder"}, nil
}
