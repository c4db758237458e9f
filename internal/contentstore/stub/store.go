package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"solana-cert-mint/internal/contentstore"
	"solana-cert-mint/internal/domain"
)

// Upload is one recorded Upload call.
type Upload struct {
	Name string
	Size int
}

// Store implements contentstore.Store in memory, returning ipfs://<sha256 hex> locators.
type Store struct {
	mu      sync.Mutex
	blobs   map[domain.ContentLocator][]byte
	uploads []Upload

	// Err, when set, is returned by every Upload.
	Err error
	// FailOn makes uploads whose suggested name matches fail with Err.
	FailOn string
}

// NewStore creates an empty stub store.
func NewStore() *Store {
	return &Store{blobs: make(map[domain.ContentLocator][]byte)}
}

var _ contentstore.Store = (*Store)(nil)

// Name returns "stub".
func (s *Store) Name() string { return "stub" }

// Upload records the call and stores the bytes under their hash.
func (s *Store) Upload(_ context.Context, data []byte, suggestedName string) (domain.ContentLocator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = append(s.uploads, Upload{Name: suggestedName, Size: len(data)})

	if s.Err != nil && (s.FailOn == "" || s.FailOn == suggestedName) {
		return "", &domain.UploadError{Store: s.Name(), Err: s.Err}
	}
	if len(data) == 0 {
		return "", &domain.UploadError{Store: s.Name(), Err: contentstore.ErrEmptyContent}
	}

	sum := sha256.Sum256(data)
	loc := domain.NewContentLocator(domain.SchemeIPFS, hex.EncodeToString(sum[:]))
	s.blobs[loc] = append([]byte(nil), data...)
	return loc, nil
}

// Uploads returns a copy of the recorded calls.
func (s *Store) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Get returns the bytes stored under loc.
func (s *Store) Get(loc domain.ContentLocator) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[loc]
	return b, ok
}
