package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/shipledger/internal/store"
)

// ErrStoreNotFound is reported when the build's store does not exist.
var ErrStoreNotFound = store.ErrNotFound

// ErrBuildInProgress is returned when a build for the same store is already
// running, either in this process (Coordinator) or in another (lock file).
var ErrBuildInProgress = errors.New("build already in progress")

// FailureKind categorizes build failures. Callers decide retry policy from it.
type FailureKind string

const (
	// FailureStoreNotFound is fatal: retrying will not help until the store
	// is created.
	FailureStoreNotFound FailureKind = "STORE_NOT_FOUND"

	// FailureRuntime covers everything else, including recovered panics.
	// The ledger stays valid and a later build can resume.
	FailureRuntime FailureKind = "RUNTIME_FAILURE"
)

// BuildError is the error surfaced for a failed build.
type BuildError struct {
	Kind    FailureKind
	Message string
	BuildID string
	Err     error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.BuildID != "" {
		return fmt.Sprintf("%s: %s (build=%s)", e.Kind, e.Message, e.BuildID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Retryable reports whether running another build later may succeed.
func (e *BuildError) Retryable() bool {
	return e.Kind != FailureStoreNotFound
}

// IsStoreNotFound returns true if err reports a missing store.
// Uses errors.As to handle wrapped errors.
func IsStoreNotFound(err error) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind == FailureStoreNotFound
	}
	return errors.Is(err, ErrStoreNotFound)
}

// newBuildError classifies err for the build with the given id.
func newBuildError(buildID string, err error) *BuildError {
	kind := FailureRuntime
	if errors.Is(err, ErrStoreNotFound) {
		kind = FailureStoreNotFound
	}
	return &BuildError{
		Kind:    kind,
		Message: err.Error(),
		BuildID: buildID,
		Err:     err,
	}
}

// panicError wraps a value recovered from a panicking build.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("build panicked: %w", err)
	}
	return fmt.Errorf("build panicked: %v", v)
}
