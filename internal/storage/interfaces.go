package storage

import (
	"context"

	"solana-cert-mint/internal/domain"
)

// IssuanceStore provides access to certificate_issuances storage.
type IssuanceStore interface {
	// Insert adds a new issuance record. Returns ErrDuplicateKey if certificate_id exists.
	Insert(ctx context.Context, r *domain.IssuanceRecord) error

	// GetByCertificateID retrieves a record by certificate ID. Returns ErrNotFound if not exists.
	GetByCertificateID(ctx context.Context, certificateID string) (*domain.IssuanceRecord, error)

	// GetByRecipient retrieves all records for a recipient wallet, ordered by created_at ASC.
	GetByRecipient(ctx context.Context, recipient string) ([]*domain.IssuanceRecord, error)
}

// MintEventStore provides access to mint_events storage.
type MintEventStore interface {
	// InsertBulk adds multiple events. Fails entire batch on duplicate event_id.
	InsertBulk(ctx context.Context, events []*domain.MintEvent) error

	// GetByCertificateID retrieves all events of an issuance, ordered by timestamp ASC.
	GetByCertificateID(ctx context.Context, certificateID string) ([]*domain.MintEvent, error)
}
