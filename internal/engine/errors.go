package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/metadata"
	"github.com/roach88/conventions/internal/rules"
)

// BuildError is the structured failure of one model build.
//
// Err keeps the underlying cause, so errors.Is and errors.As reach the
// dispatcher, metadata and validation errors behind it.
type BuildError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Stage is the build step that failed.
	Stage Stage

	// RunID identifies the failed run.
	RunID string

	Err error
}

// ErrorCode categorizes build errors.
type ErrorCode string

const (
	// ErrCodeInvalidSpec: the definition references unknown or conflicting
	// elements.
	ErrCodeInvalidSpec ErrorCode = "INVALID_SPEC"

	// ErrCodeValidation: the finished model failed validation.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"

	// ErrCodeInfiniteLoop: conventions kept triggering each other past the
	// iteration bound.
	ErrCodeInfiniteLoop ErrorCode = "INFINITE_LOOP"

	// ErrCodeCanceled: the context was canceled between stages.
	ErrCodeCanceled ErrorCode = "CANCELED"

	// ErrCodeJournal: the run could not be written to the journal.
	ErrCodeJournal ErrorCode = "JOURNAL"

	// ErrCodeInternal covers everything else.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Stage names a step of Build.
type Stage string

const (
	StageHash       Stage = "hash"
	StageInitialize Stage = "initialize"
	StageApply      Stage = "apply"
	StageFinalize   Stage = "finalize"
	StageSnapshot   Stage = "snapshot"
	StageJournal    Stage = "journal"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s: %v (run=%s)", e.Code, e.Stage, e.Err, e.RunID)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// CodeOf returns the code of the BuildError in err's chain, or "" if there
// is none.
func CodeOf(err error) ErrorCode {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsValidationError reports whether err is a model validation failure.
func IsValidationError(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsInfiniteLoop reports whether err is an exceeded iteration bound.
func IsInfiniteLoop(err error) bool {
	return CodeOf(err) == ErrCodeInfiniteLoop
}

// IsInvalidSpec reports whether err rejects the model definition itself.
func IsInvalidSpec(err error) bool {
	return CodeOf(err) == ErrCodeInvalidSpec
}

func newBuildError(runID string, stage Stage, err error) *BuildError {
	return &BuildError{Code: classify(err), Stage: stage, RunID: runID, Err: err}
}

func classify(err error) ErrorCode {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	case rules.IsValidationError(err):
		return ErrCodeValidation
	case convention.IsInfiniteLoop(err):
		return ErrCodeInfiniteLoop
	case errors.Is(err, metadata.ErrInvalid), errors.Is(err, metadata.ErrNotFound):
		return ErrCodeInvalidSpec
	default:
		return ErrCodeInternal
	}
}
