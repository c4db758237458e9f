package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports bad or oversized input caught before any network call.
// Never retried; the caller has to correct the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UploadError reports a content-store failure (network, auth, remote rejection).
// The caller may retry the whole pipeline.
type UploadError struct {
	Store      string // store name, e.g. "pinata"
	StatusCode int    // HTTP status, 0 when no response was received
	Err        error
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload to %s failed (status %d): %v", e.Store, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upload to %s failed: %v", e.Store, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// MintError reports a ledger-side failure tagged with the failed stage.
// Partial carries whatever addresses and signatures were gathered before the failure.
type MintError struct {
	Stage   Stage
	Partial MintResult
	Err     error
}

func (e *MintError) Error() string {
	return fmt.Sprintf("mint stage %s failed: %v", e.Stage, e.Err)
}

func (e *MintError) Unwrap() error {
	return e.Err
}

// Committed reports whether on-chain state exists despite the failure.
func (e *MintError) Committed() bool {
	return e.Partial.CreateMintSignature != "" || e.Partial.MintSignature != ""
}

// EncodingError reports a fixed-schema encoding failure. Reaching it means the
// inputs were not validated upstream; treat as a defect, not a runtime condition.
type EncodingError struct {
	Field  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Field, e.Reason)
}

// IsRetryable reports whether rerunning the whole pipeline may succeed.
func IsRetryable(err error) bool {
	var uploadErr *UploadError
	var mintErr *MintError
	return errors.As(err, &uploadErr) || errors.As(err, &mintErr)
}
