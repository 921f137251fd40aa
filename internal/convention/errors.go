package convention

import (
	"errors"
	"fmt"
)

// DispatchError represents a systemic failure of the dispatcher.
//
// Dispatch errors include:
//   - Infinite loop: the batch trampoline exceeded its iteration bound
//   - Invalid event: an event whose tag does not match its shape
//   - Open scope: a batch was leaked when the caller required none
//
// Errors raised by plugins are never wrapped in a DispatchError.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the event kind involved, if any.
	Kind Kind

	// Details contains additional context.
	Details map[string]string
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeInfiniteLoop indicates the trampoline exceeded its iteration bound.
	ErrCodeInfiniteLoop DispatchErrorCode = "INFINITE_CONVENTION_LOOP"

	// ErrCodeInvalidEvent indicates a malformed event.
	ErrCodeInvalidEvent DispatchErrorCode = "INVALID_EVENT"

	// ErrCodeScopeOpen indicates a delayed scope was still active.
	ErrCodeScopeOpen DispatchErrorCode = "SCOPE_OPEN"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Kind.Valid() {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInfiniteLoop returns true if err is a loop-bound violation.
// Uses errors.As to handle wrapped errors.
func IsInfiniteLoop(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeInfiniteLoop
	}
	return false
}

// IsInvalidEvent returns true if err reports a malformed event.
func IsInvalidEvent(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeInvalidEvent
	}
	return false
}

// IsScopeOpen returns true if err reports a leaked batch.
func IsScopeOpen(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeScopeOpen
	}
	return false
}

func newInfiniteLoopError(iterations, limit int) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeInfiniteLoop,
		Message: fmt.Sprintf("conventions did not settle after %d iterations", limit),
		Details: map[string]string{
			"iterations":     fmt.Sprintf("%d", iterations),
			"max_iterations": fmt.Sprintf("%d", limit),
		},
	}
}

func newInvalidEventError(k Kind, msg string) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeInvalidEvent,
		Message: msg,
		Kind:    k,
	}
}

func newScopeOpenError(depth int) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeScopeOpen,
		Message: fmt.Sprintf("%d delayed scope(s) still open", depth),
		Details: map[string]string{"depth": fmt.Sprintf("%d", depth)},
	}
}

// ContractViolation is the panic value raised by debug builds when a plugin
// changed the observable subject without stopping the chain, or when a
// caller broke a documented precondition.
type ContractViolation struct {
	Kind    Kind
	Plugin  string
	Message string
}

func (v *ContractViolation) Error() string {
	if v.Plugin != "" {
		return fmt.Sprintf("convention contract violated by %q on %s: %s", v.Plugin, v.Kind, v.Message)
	}
	return fmt.Sprintf("convention contract violated: %s", v.Message)
}
