// Package local provides host-OS implementations of the persistence
// capabilities. On a desktop there is no interactive grant prompt or share
// sheet, so grants come from configuration and sharing degrades to an outbox
// directory.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/collegestudy/resource_downloader/internal/persist"
)

const dirPerm = 0755

// DirGrants satisfies persist.DirectoryGrants with a preconfigured downloads
// directory. An empty directory behaves like a declined prompt.
type DirGrants struct {
	dir string

	mu      sync.Mutex
	granted bool
}

func NewDirGrants(dir string) *DirGrants {
	return &DirGrants{dir: dir}
}

func (g *DirGrants) Granted() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.granted {
		return g.dir, true
	}

	return "", false
}

func (g *DirGrants) Request(ctx context.Context) (string, error) {
	if g.dir == "" {
		return "", persist.ErrDeclined
	}

	if err := os.MkdirAll(g.dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to prepare downloads directory: %w", err)
	}

	g.mu.Lock()
	g.granted = true
	g.mu.Unlock()

	return g.dir, nil
}

// FolderLibrary satisfies persist.MediaLibrary with a directory tree: assets
// are copied under the root and albums are subdirectories.
type FolderLibrary struct {
	root string
}

func NewFolderLibrary(root string) *FolderLibrary {
	return &FolderLibrary{root: root}
}

func (l *FolderLibrary) RequestPermission(ctx context.Context) (bool, error) {
	if l.root == "" {
		return false, nil
	}

	if err := os.MkdirAll(l.root, dirPerm); err != nil {
		return false, fmt.Errorf("failed to prepare media root: %w", err)
	}

	return true, nil
}

func (l *FolderLibrary) CreateAsset(ctx context.Context, localPath string) (string, error) {
	dest := filepath.Join(l.root, filepath.Base(localPath))
	if err := copyFile(localPath, dest); err != nil {
		return "", err
	}

	return dest, nil
}

func (l *FolderLibrary) Album(ctx context.Context, name string) (string, bool, error) {
	album := filepath.Join(l.root, name)

	info, err := os.Stat(album)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, err
	}

	if !info.IsDir() {
		return "", false, fmt.Errorf("album path is not a directory: %s", album)
	}

	return album, true, nil
}

func (l *FolderLibrary) AddToAlbum(ctx context.Context, assetID, albumID string) error {
	return os.Rename(assetID, filepath.Join(albumID, filepath.Base(assetID)))
}

func (l *FolderLibrary) CreateAlbum(ctx context.Context, name, assetID string) error {
	album := filepath.Join(l.root, name)
	if err := os.MkdirAll(album, dirPerm); err != nil {
		return fmt.Errorf("failed to create album: %w", err)
	}

	return os.Rename(assetID, filepath.Join(album, filepath.Base(assetID)))
}

// OutboxDialog satisfies persist.ShareDialog by copying the file into an
// outbox directory and reporting it as shared.
type OutboxDialog struct {
	dir string
}

func NewOutboxDialog(dir string) *OutboxDialog {
	return &OutboxDialog{dir: dir}
}

func (d *OutboxDialog) Share(ctx context.Context, localPath, title string) (persist.ShareAction, error) {
	if d.dir == "" {
		return persist.ActionDismissed, nil
	}

	if err := os.MkdirAll(d.dir, dirPerm); err != nil {
		return "", err
	}

	if err := copyFile(localPath, filepath.Join(d.dir, filepath.Base(localPath))); err != nil {
		return "", err
	}

	return persist.ActionShared, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}

	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return fmt.Errorf("failed to copy file: %w", err)
	}

	return out.Close()
}
