package memory

import (
	"context"
	"sort"
	"sync"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/storage"
)

// MintEventStore is an in-memory implementation of storage.MintEventStore.
type MintEventStore struct {
	mu            sync.RWMutex
	seen          map[string]struct{}            // event_id
	byCertificate map[string][]*domain.MintEvent // certificate_id -> events
}

// NewMintEventStore creates a new in-memory mint event store.
func NewMintEventStore() *MintEventStore {
	return &MintEventStore{
		seen:          make(map[string]struct{}),
		byCertificate: make(map[string][]*domain.MintEvent),
	}
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *MintEventStore) InsertBulk(_ context.Context, events []*domain.MintEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.EventID == "" || e.CertificateID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.seen[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		batch[e.EventID] = struct{}{}
	}

	for _, e := range events {
		evCopy := *e
		s.seen[e.EventID] = struct{}{}
		s.byCertificate[e.CertificateID] = append(s.byCertificate[e.CertificateID], &evCopy)
	}
	return nil
}

// GetByCertificateID retrieves all events of an issuance, ordered by timestamp ASC.
func (s *MintEventStore) GetByCertificateID(_ context.Context, certificateID string) ([]*domain.MintEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byCertificate[certificateID]
	result := make([]*domain.MintEvent, 0, len(stored))
	for _, e := range stored {
		evCopy := *e
		result = append(result, &evCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

var _ storage.MintEventStore = (*MintEventStore)(nil)
