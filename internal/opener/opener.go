// Package opener attempts to present a persisted file or URL in an external
// viewer. Everything here is best-effort: a failure must never roll back
// persistence or usage recording.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/collegestudy/resource_downloader/internal/logctx"
)

// Opener hands a file or URL to the platform's external viewer.
type Opener interface {
	OpenFile(ctx context.Context, path, mimeType string) error
	OpenURL(ctx context.Context, url string) error
}

// ExecOpener shells out to the host's opener command.
type ExecOpener struct {
	goos string
}

func NewExecOpener() *ExecOpener {
	return &ExecOpener{goos: runtime.GOOS}
}

func (o *ExecOpener) OpenFile(ctx context.Context, path, mimeType string) error {
	return o.open(ctx, path)
}

func (o *ExecOpener) OpenURL(ctx context.Context, url string) error {
	return o.open(ctx, url)
}

func (o *ExecOpener) open(ctx context.Context, target string) error {
	logger := logctx.LoggerFromContext(ctx)

	var cmd *exec.Cmd

	switch o.goos {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch viewer: %w", err)
	}

	logger.Debug("handed off to external viewer", "target", target)

	// The viewer owns the file from here; don't hold the pipeline on it.
	go func() { _ = cmd.Wait() }()

	return nil
}
