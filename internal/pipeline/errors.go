package pipeline

import "errors"

// Terminal persistence outcomes the caller turns into user-facing messages.
var (
	// ErrPersistenceCancelled means the user declined the save prompt. The
	// scratch copy is gone and nothing was recorded.
	ErrPersistenceCancelled = errors.New("save cancelled, the file was not kept")

	// ErrPersistenceFailed means every strategy in the chain was exhausted
	// without producing a durable copy.
	ErrPersistenceFailed = errors.New("the file could not be saved anywhere on this device")
)
