package entity

import "errors"

// Component validation sentinels. A *ValidationError matches exactly one of
// them with errors.Is.
var (
	ErrMissingCustomID  = errors.New("missing custom_id")
	ErrInvalidCustomID  = errors.New("invalid custom_id")
	ErrInvalidLabel     = errors.New("invalid label")
	ErrURLStyleMismatch = errors.New("url/style mismatch")
	ErrMissingURL       = errors.New("missing url")
	ErrInvalidStyle     = errors.New("invalid style")
	ErrRowSize          = errors.New("invalid action row size")
	ErrRowCount         = errors.New("invalid number of action rows")
	ErrDuplicateID      = errors.New("duplicate custom_id")
)

// Page and session sentinels.
var (
	ErrInvalidPage   = errors.New("page must have either content or an embed")
	ErrNoPages       = errors.New("at least one page is required")
	ErrMixedPages    = errors.New("pages must be all text or all embeds")
	ErrInvalidSplit  = errors.New("invalid split parameters")
	ErrInvalidTarget = errors.New("channel and user are required")
)

// ValidationError reports which construction constraint failed.
type ValidationError struct {
	Constraint error
	Message    string
}

func newValidationError(constraint error, msg string) *ValidationError {
	return &ValidationError{Constraint: constraint, Message: msg}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// Unwrap exposes the constraint sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Constraint
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
