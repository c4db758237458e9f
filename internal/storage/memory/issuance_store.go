package memory

import (
	"context"
	"sort"
	"sync"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/storage"
)

// IssuanceStore is an in-memory implementation of storage.IssuanceStore.
type IssuanceStore struct {
	mu          sync.RWMutex
	byID        map[string]*domain.IssuanceRecord // keyed by certificate_id
	byRecipient map[string][]string               // recipient -> certificate_ids
}

// NewIssuanceStore creates a new in-memory issuance store.
func NewIssuanceStore() *IssuanceStore {
	return &IssuanceStore{
		byID:        make(map[string]*domain.IssuanceRecord),
		byRecipient: make(map[string][]string),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if certificate_id already exists.
func (s *IssuanceStore) Insert(_ context.Context, r *domain.IssuanceRecord) error {
	if r == nil || r.CertificateID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[r.CertificateID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *r
	s.byID[r.CertificateID] = &recCopy
	s.byRecipient[r.RecipientAddress] = append(s.byRecipient[r.RecipientAddress], r.CertificateID)
	return nil
}

// GetByCertificateID retrieves a record by certificate ID. Returns ErrNotFound if not exists.
func (s *IssuanceStore) GetByCertificateID(_ context.Context, certificateID string) (*domain.IssuanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byID[certificateID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recCopy := *r
	return &recCopy, nil
}

// GetByRecipient retrieves all records for a recipient, ordered by created_at ASC.
func (s *IssuanceStore) GetByRecipient(_ context.Context, recipient string) ([]*domain.IssuanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byRecipient[recipient]
	result := make([]*domain.IssuanceRecord, 0, len(ids))
	for _, id := range ids {
		recCopy := *s.byID[id]
		result = append(result, &recCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt < result[j].CreatedAt
	})
	return result, nil
}

var _ storage.IssuanceStore = (*IssuanceStore)(nil)
