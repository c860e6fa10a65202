// Package persist moves a downloaded scratch file into durable, user-visible
// storage through an ordered chain of platform strategies.
package persist

import (
	"context"
	"errors"

	"github.com/collegestudy/resource_downloader/internal/logctx"
)

// Status tags the result of a persistence attempt.
type Status string

const (
	StatusSaved     Status = "saved"
	StatusShared    Status = "shared"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Outcome drives user-facing messaging. Only Saved and Shared count as
// success for the purposes of usage recording.
type Outcome struct {
	Status   Status
	Location string // human description of where the file ended up
	Path     string // absolute path when the strategy knows one
}

// Success reports whether the outcome allows the pipeline to record usage.
func (o Outcome) Success() bool {
	return o.Status == StatusSaved || o.Status == StatusShared
}

// ErrDeclined is returned by capability collaborators when the user declines
// a permission or grant prompt.
var ErrDeclined = errors.New("user declined")

// Strategy is one way of persisting a downloaded file. A returned error means
// the strategy could not produce a terminal outcome and the chain should fall
// through to the next one.
type Strategy interface {
	Name() string
	Available() bool
	Attempt(ctx context.Context, localPath, suggestedName, mimeType string) (Outcome, error)
}

// Chain folds over an ordered list of strategies until one produces a
// terminal outcome. Structurally unavailable strategies are skipped; a
// strategy error falls through to the next. Exhaustion is a Failed outcome.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

func (c *Chain) Persist(ctx context.Context, localPath, suggestedName, mimeType string) Outcome {
	logger := logctx.LoggerFromContext(ctx).With("file_name", suggestedName)

	for _, s := range c.strategies {
		if !s.Available() {
			logger.Debug("persistence strategy unavailable", "strategy", s.Name())

			continue
		}

		outcome, err := s.Attempt(ctx, localPath, suggestedName, mimeType)
		if err != nil {
			logger.Warn("persistence strategy failed, falling through", "strategy", s.Name(), "err", err)

			continue
		}

		logger.Info("persistence outcome", "strategy", s.Name(), "status", outcome.Status)

		return outcome
	}

	return Outcome{Status: StatusFailed}
}
