package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DirectoryGrants is a user-grantable persistent-folder capability. Granted
// returns the folder from an earlier grant in this session, if any; Request
// prompts the user and returns ErrDeclined when they refuse.
type DirectoryGrants interface {
	Granted() (string, bool)
	Request(ctx context.Context) (string, error)
}

// GrantedDirStrategy writes the file into a user-granted folder. This is the
// primary strategy: a decline is a terminal Cancelled outcome, while write
// errors fall through to the next strategy.
type GrantedDirStrategy struct {
	Grants DirectoryGrants

	now func() time.Time
}

func NewGrantedDirStrategy(grants DirectoryGrants) *GrantedDirStrategy {
	return &GrantedDirStrategy{Grants: grants, now: time.Now}
}

func (s *GrantedDirStrategy) Name() string { return "granted_directory" }

func (s *GrantedDirStrategy) Available() bool { return s.Grants != nil }

func (s *GrantedDirStrategy) Attempt(ctx context.Context, localPath, suggestedName, mimeType string) (Outcome, error) {
	dir, ok := s.Grants.Granted()
	if !ok {
		var err error

		dir, err = s.Grants.Request(ctx)
		if errors.Is(err, ErrDeclined) {
			return Outcome{Status: StatusCancelled}, nil
		}

		if err != nil {
			return Outcome{}, fmt.Errorf("directory grant request failed: %w", err)
		}
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read scratch file: %w", err)
	}

	dest, err := s.createEntry(dir, suggestedName)
	if err != nil {
		return Outcome{}, err
	}

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return Outcome{}, fmt.Errorf("failed to write into granted folder: %w", err)
	}

	return Outcome{Status: StatusSaved, Location: "your selected folder", Path: dest}, nil
}

// createEntry creates a new file entry, retrying once with a timestamp suffix
// before the extension when the name collides.
func (s *GrantedDirStrategy) createEntry(dir, name string) (string, error) {
	dest := filepath.Join(dir, name)

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err == nil {
		f.Close()

		return dest, nil
	}

	fallback := filepath.Join(dir, uniqueName(name, s.now()))

	f, err = os.OpenFile(fallback, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create entry in granted folder: %w", err)
	}

	f.Close()

	return fallback, nil
}

func uniqueName(name string, now time.Time) string {
	stamp := strconv.FormatInt(now.UnixMilli(), 10)

	ext := filepath.Ext(name)
	if ext == "" {
		return name + "-" + stamp
	}

	return strings.TrimSuffix(name, ext) + "-" + stamp + ext
}
