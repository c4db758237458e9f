// Package contentstore uploads blobs to content-addressed storage and returns stable locators.
package contentstore

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"solana-cert-mint/internal/domain"
)

// DefaultTimeout bounds a single upload request.
const DefaultTimeout = 60 * time.Second

// ErrEmptyContent is returned when asked to upload zero bytes.
var ErrEmptyContent = errors.New("content is empty")

// Store uploads an opaque byte buffer and returns its content locator.
// suggestedName is advisory and only used for naming and content-type hints.
// Failures are *domain.UploadError; callers retry the whole pipeline, not the upload.
type Store interface {
	Upload(ctx context.Context, data []byte, suggestedName string) (domain.ContentLocator, error)

	// Name identifies the backend in logs, metrics and errors.
	Name() string
}

// ContentType derives a MIME type from the suggested name's extension.
func ContentType(suggestedName string) string {
	ext := strings.ToLower(filepath.Ext(suggestedName))
	switch ext {
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	case "":
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// uploadErr builds an UploadError for store.
func uploadErr(store string, status int, err error) *domain.UploadError {
	return &domain.UploadError{Store: store, StatusCode: status, Err: err}
}
