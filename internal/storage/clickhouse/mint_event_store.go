package clickhouse

import (
	"context"
	"fmt"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/storage"
)

// MintEventStore implements storage.MintEventStore using ClickHouse.
type MintEventStore struct {
	conn *Conn
}

// NewMintEventStore creates a new MintEventStore.
func NewMintEventStore(conn *Conn) *MintEventStore {
	return &MintEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MintEventStore = (*MintEventStore)(nil)

// InsertBulk adds multiple events. Fails entire batch on any duplicate event_id.
func (s *MintEventStore) InsertBulk(ctx context.Context, events []*domain.MintEvent) error {
	if len(events) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.EventID == "" || e.CertificateID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.EventID] = struct{}{}
	}

	// ReplacingMergeTree would silently collapse duplicates; keep append-only semantics
	for _, e := range events {
		exists, err := s.exists(ctx, e.EventID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO mint_events (
			event_id, certificate_id, stage, status, signature, address,
			duration_ms, error, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.EventID, e.CertificateID, e.Stage, string(e.Status), e.Signature, e.Address,
			e.DurationMs, e.Error, e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByCertificateID retrieves all events of an issuance, ordered by timestamp ASC.
func (s *MintEventStore) GetByCertificateID(ctx context.Context, certificateID string) ([]*domain.MintEvent, error) {
	query := `
		SELECT
			event_id, certificate_id, stage, status, signature, address,
			duration_ms, error, timestamp_ms
		FROM mint_events FINAL
		WHERE certificate_id = ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, certificateID)
	if err != nil {
		return nil, fmt.Errorf("query mint events: %w", err)
	}
	defer rows.Close()

	var result []*domain.MintEvent
	for rows.Next() {
		var e domain.MintEvent
		var status string
		if err := rows.Scan(
			&e.EventID, &e.CertificateID, &e.Stage, &status, &e.Signature, &e.Address,
			&e.DurationMs, &e.Error, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan mint event: %w", err)
		}
		e.Status = domain.MintEventStatus(status)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mint events: %w", err)
	}
	return result, nil
}

func (s *MintEventStore) exists(ctx context.Context, eventID string) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM mint_events WHERE event_id = ?`, eventID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
