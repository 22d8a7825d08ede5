// Package errors classifies failures of outbound platform calls.
package errors

import (
	"errors"
	"fmt"
)

// TransientError is a failure that may succeed if attempted later
// (rate limiting, network trouble, platform 5xx).
type TransientError struct {
	Message string
	Err     error
}

// NewTransientError wraps err as transient.
func NewTransientError(message string, err error) *TransientError {
	return &TransientError{Message: message, Err: err}
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError is a failure that will not go away on its own
// (bad credentials, missing permissions, unknown channel).
type PermanentError struct {
	Message string
	Err     error
}

// NewPermanentError wraps err as permanent.
func NewPermanentError(message string, err error) *PermanentError {
	return &PermanentError{Message: message, Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsTransientError reports whether err is, or wraps, a TransientError.
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanentError reports whether err is, or wraps, a PermanentError.
func IsPermanentError(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
