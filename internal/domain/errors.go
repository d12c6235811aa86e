package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation signals a rejected query or request field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing handle, category or label.
	ErrNotFound = errors.New("not found")
	// ErrPageRange signals a page number outside the available results.
	ErrPageRange = errors.New("page out of range")
	// ErrNoMatchFound signals a search that produced no results.
	ErrNoMatchFound = errors.New("no match found")
	// ErrReferenceNotReady signals scoring before reference embeddings were loaded.
	ErrReferenceNotReady = errors.New("reference embeddings not loaded")
	// ErrEmbeddingProviderError signals an embedding model failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals a query embedding of the wrong size.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// Reason identifies the specific cause of a validation or not-found error.
type Reason string

// Validation reasons.
const (
	ReasonEmptyFile         Reason = "empty_file"
	ReasonFileReadFailure   Reason = "file_read_failure"
	ReasonInvalidFileFormat Reason = "invalid_file_format"
	ReasonTooManyCharacters Reason = "too_many_characters"
	ReasonMissingQueryData  Reason = "missing_query_data"
)

// Not-found reasons.
const (
	ReasonUnknownHandle   Reason = "unknown_handle"
	ReasonUnknownCategory Reason = "unknown_category"
	ReasonUnknownLabel    Reason = "unknown_label"
)

// ValidationError wraps ErrValidation with the failing reason.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for reason.
func NewValidationError(reason Reason, detail string) error {
	return &ValidationError{Reason: reason, Detail: detail}
}

// NotFoundError wraps ErrNotFound with the reason and the key that was looked up.
type NotFoundError struct {
	Reason Reason
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrNotFound.Error(), e.Reason, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound creates a not-found error for reason and key.
func NewNotFound(reason Reason, key string) error {
	return &NotFoundError{Reason: reason, Key: key}
}

// ReasonOf extracts the Reason of a validation or not-found error.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Reason, true
	}
	return "", false
}

// Errors accumulates independent failures. Every cause stays addressable
// through Unwrap, so errors.Is/As see each one.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Unwrap() []error { return e }

// Err returns nil for an empty list, the single error for a list of one,
// and the list itself otherwise.
func (e Errors) Err() error {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return e[0]
	default:
		return e
	}
}

// Flatten expands err into its individual causes when it is an Errors list.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var list Errors
	if errors.As(err, &list) {
		return list
	}
	return []error{err}
}
