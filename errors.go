package batchload

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongContext reports an engine call made outside the engine's executor.
	// It is a programming error and is never retried.
	ErrWrongContext = errors.New("batchload: called outside the controlling executor")

	// ErrAlreadyRegistered is returned by Register when a kind already has a loader.
	ErrAlreadyRegistered = errors.New("batchload: kind already registered")
)

// WrongContextError is returned by Load, Clear and IsCached when ctx was not
// issued by the loader's executor. It matches ErrWrongContext.
type WrongContextError struct {
	Op     string // "Load", "Clear" or "IsCached"
	Loader string // Options.Name
}

func (e *WrongContextError) Error() string {
	if e.Loader == "" {
		return fmt.Sprintf("batchload: %s must be invoked from the controlling executor", e.Op)
	}
	return fmt.Sprintf("batchload: %s (%s) must be invoked from the controlling executor", e.Op, e.Loader)
}

func (e *WrongContextError) Unwrap() error { return ErrWrongContext }
