package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies a class of pipeline failure.
type ErrorCode string

const (
	ErrSupplier       ErrorCode = "SUPPLIER"                 // 502
	ErrInvalidRecord  ErrorCode = "INVALID_RECORD"           // 422
	ErrCountMismatch  ErrorCode = "INFERENCE_COUNT_MISMATCH" // 502
	ErrInference      ErrorCode = "INFERENCE"                // 502
	ErrEmptyInput     ErrorCode = "EMPTY_INPUT"              // soft, reported as noop
	ErrBusy           ErrorCode = "BUSY"                     // 409
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"          // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"                // 404
	ErrInternal       ErrorCode = "INTERNAL"                 // 500
)

// PipelineError is a structured error with code, status, details and an optional cause.
type PipelineError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewSupplier wraps a fetch failure. No records are produced when this is returned.
func NewSupplier(source string, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrSupplier,
		Status:  502,
		Message: fmt.Sprintf("fetch comments from %q failed", source),
		Details: map[string]any{"source": source},
		Err:     err,
	}
}

// NewInvalidRecord reports a raw record that cannot be normalized.
func NewInvalidRecord(index int, reason string) *PipelineError {
	return &PipelineError{
		Code:    ErrInvalidRecord,
		Status:  422,
		Message: fmt.Sprintf("record %d: %s", index, reason),
		Details: map[string]any{"index": index, "reason": reason},
	}
}

// NewCountMismatch reports an inference call that returned the wrong number of results.
func NewCountMismatch(stage string, batch, want, got int) *PipelineError {
	return &PipelineError{
		Code:    ErrCountMismatch,
		Status:  502,
		Message: fmt.Sprintf("%s stage batch %d: inference returned %d results for %d texts", stage, batch, got, want),
		Details: map[string]any{"stage": stage, "batch": batch, "want": want, "got": got},
	}
}

// NewInference wraps a failed or malformed inference call for one batch.
func NewInference(stage string, batch int, err error) *PipelineError {
	return &PipelineError{
		Code:    ErrInference,
		Status:  502,
		Message: fmt.Sprintf("%s stage batch %d failed", stage, batch),
		Details: map[string]any{"stage": stage, "batch": batch},
		Err:     err,
	}
}

// NewEmptyInput reports that op had no records to work on.
func NewEmptyInput(op string) *PipelineError {
	return &PipelineError{
		Code:    ErrEmptyInput,
		Status:  200,
		Message: fmt.Sprintf("no comments to %s", op),
		Details: map[string]any{"op": op},
	}
}

// NewBusy reports that another fetch or analyze is already running.
func NewBusy(op string) *PipelineError {
	return &PipelineError{
		Code:    ErrBusy,
		Status:  409,
		Message: fmt.Sprintf("cannot %s: another operation is in progress", op),
		Details: map[string]any{"op": op},
	}
}

// NewInvalidRequest creates a 400 error for invalid caller input.
func NewInvalidRequest(msg string) *PipelineError {
	return &PipelineError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error.
func NewNotFound(what string) *PipelineError {
	return &PipelineError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewInternal creates a 500 error for unexpected failures.
func NewInternal(err error) *PipelineError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PipelineError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// As returns the first PipelineError in err's chain.
func As(err error) (*PipelineError, bool) {
	var pErr *PipelineError
	if stderrors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// Is checks if err (or anything it wraps) is a PipelineError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := As(err); ok {
		return pErr.Code == code
	}
	return false
}
