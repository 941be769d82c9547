// Package errs defines the error taxonomy shared across the pipeline.
//
// Validation, not-ready and immutability errors propagate to the API layer
// as structured responses. Extraction errors stay inside the pipeline and
// only decide between retry and terminal failure. Lease conflicts make a
// worker abandon the task without touching user-visible state.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("record not found")

	// ErrLeaseConflict reports that another worker legitimately holds the
	// lease on a file. The observing worker must abandon without writing.
	ErrLeaseConflict = errors.New("file is leased by another worker")

	// ErrImmutable reports an edit attempt on an approved dataset.
	ErrImmutable = errors.New("dataset is approved and immutable")

	// ErrCollectorUnavailable reports that no external data collector is
	// configured. Callers treat it as "no signals", never as a failure.
	ErrCollectorUnavailable = errors.New("external data collector not available")
)

// ValidationError reports rejected input. Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotReadyError reports a dataset operation attempted on a source file that
// has not reached the extracted state.
type NotReadyError struct {
	FileID string
	Status string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("file %s is not ready for curation (status: %s)", e.FileID, e.Status)
}

// IsNotReady reports whether err is a NotReadyError.
func IsNotReady(err error) bool {
	var nr *NotReadyError
	return errors.As(err, &nr)
}

// ExtractionError wraps a strategy or chain failure and records whether it
// looked transient (timeout, network, quota) or structural (corrupt input,
// empty content, unrecognized format).
type ExtractionError struct {
	Method    string
	Transient bool
	Err       error
}

func (e *ExtractionError) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	if e.Method == "" {
		return fmt.Sprintf("%s extraction failure: %v", kind, e.Err)
	}
	return fmt.Sprintf("%s extraction failure (%s): %v", kind, e.Method, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Transientf builds a transient ExtractionError.
func Transientf(format string, args ...interface{}) error {
	return &ExtractionError{Transient: true, Err: fmt.Errorf(format, args...)}
}

// Terminalf builds a terminal ExtractionError.
func Terminalf(format string, args ...interface{}) error {
	return &ExtractionError{Transient: false, Err: fmt.Errorf(format, args...)}
}

// WithMethod attaches the failing strategy name to an ExtractionError,
// preserving its transience. Other errors are wrapped as terminal.
func WithMethod(method string, err error) error {
	var xe *ExtractionError
	if errors.As(err, &xe) {
		return &ExtractionError{Method: method, Transient: xe.Transient, Err: xe.Err}
	}
	return &ExtractionError{Method: method, Transient: false, Err: err}
}

// IsTransient reports whether err carries a transient extraction failure.
func IsTransient(err error) bool {
	var xe *ExtractionError
	return errors.As(err, &xe) && xe.Transient
}
