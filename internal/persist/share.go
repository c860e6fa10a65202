package persist

import (
	"context"
	"strings"
)

// ShareSheet is a native share/send-to capability.
type ShareSheet interface {
	Available() bool
	Share(ctx context.Context, localPath, mimeType, dialogTitle string) error
}

// ShareSheetStrategy hands the file to the native share sheet. Once invoked
// it is terminal: a user cancellation is distinguished from a genuine failure
// by a cancellation marker in the error.
type ShareSheetStrategy struct {
	Sheet ShareSheet
}

func NewShareSheetStrategy(sheet ShareSheet) *ShareSheetStrategy {
	return &ShareSheetStrategy{Sheet: sheet}
}

func (s *ShareSheetStrategy) Name() string { return "share_sheet" }

func (s *ShareSheetStrategy) Available() bool { return s.Sheet != nil && s.Sheet.Available() }

func (s *ShareSheetStrategy) Attempt(ctx context.Context, localPath, suggestedName, mimeType string) (Outcome, error) {
	err := s.Sheet.Share(ctx, localPath, mimeType, "Save "+suggestedName)
	if err == nil {
		return Outcome{Status: StatusShared}, nil
	}

	if strings.Contains(strings.ToLower(err.Error()), "cancel") {
		return Outcome{Status: StatusCancelled}, nil
	}

	return Outcome{Status: StatusFailed}, nil
}

// ShareAction is the result reported by the generic share dialog.
type ShareAction string

const (
	ActionShared    ShareAction = "shared"
	ActionDismissed ShareAction = "dismissed"
)

// ShareDialog is the generic platform share primitive used as the last
// resort.
type ShareDialog interface {
	Share(ctx context.Context, localPath, title string) (ShareAction, error)
}

// ShareDialogStrategy is the final fallback: an explicit shared action is
// Shared, anything else is Cancelled, and an exception is the pipeline's
// final Failed.
type ShareDialogStrategy struct {
	Dialog ShareDialog
}

func NewShareDialogStrategy(dialog ShareDialog) *ShareDialogStrategy {
	return &ShareDialogStrategy{Dialog: dialog}
}

func (s *ShareDialogStrategy) Name() string { return "share_dialog" }

func (s *ShareDialogStrategy) Available() bool { return s.Dialog != nil }

func (s *ShareDialogStrategy) Attempt(ctx context.Context, localPath, suggestedName, mimeType string) (Outcome, error) {
	action, err := s.Dialog.Share(ctx, localPath, "Share "+suggestedName)
	if err != nil {
		return Outcome{Status: StatusFailed}, nil
	}

	if action == ActionShared {
		return Outcome{Status: StatusShared}, nil
	}

	return Outcome{Status: StatusCancelled}, nil
}
