package contentstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"solana-cert-mint/internal/domain"
)

// CachingStore returns the previously issued locator for identical bytes without
// uploading again. Locators are immutable, so entries never go stale.
type CachingStore struct {
	next  Store
	cache *gocache.Cache
}

// NewCachingStore wraps next with a content-hash cache. ttl <= 0 keeps entries forever.
func NewCachingStore(next Store, ttl time.Duration) *CachingStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &CachingStore{
		next:  next,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

var _ Store = (*CachingStore)(nil)

// Name returns the wrapped store's name.
func (s *CachingStore) Name() string { return s.next.Name() }

// Upload consults the cache before delegating.
func (s *CachingStore) Upload(ctx context.Context, data []byte, suggestedName string) (domain.ContentLocator, error) {
	if len(data) == 0 {
		return s.next.Upload(ctx, data, suggestedName)
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if v, found := s.cache.Get(key); found {
		return v.(domain.ContentLocator), nil
	}

	loc, err := s.next.Upload(ctx, data, suggestedName)
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(key, loc)
	return loc, nil
}

// Len returns the number of cached locators.
func (s *CachingStore) Len() int {
	return s.cache.ItemCount()
}

// RateLimitedStore throttles uploads to the wrapped store.
type RateLimitedStore struct {
	next    Store
	limiter *rate.Limiter
}

// NewRateLimitedStore allows requestsPerSecond uploads with the given burst.
func NewRateLimitedStore(next Store, requestsPerSecond float64, burst int) *RateLimitedStore {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedStore{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

var _ Store = (*RateLimitedStore)(nil)

// Name returns the wrapped store's name.
func (s *RateLimitedStore) Name() string { return s.next.Name() }

// Upload waits for limiter clearance, then delegates.
func (s *RateLimitedStore) Upload(ctx context.Context, data []byte, suggestedName string) (domain.ContentLocator, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", uploadErr(s.Name(), 0, err)
	}
	return s.next.Upload(ctx, data, suggestedName)
}

// UploadRecorder receives upload outcomes.
type UploadRecorder interface {
	RecordUpload(store string, size int, d time.Duration, err error)
}

// InstrumentedStore reports every upload to a recorder.
type InstrumentedStore struct {
	next     Store
	recorder UploadRecorder
}

// NewInstrumentedStore wraps next with recorder.
func NewInstrumentedStore(next Store, recorder UploadRecorder) *InstrumentedStore {
	return &InstrumentedStore{next: next, recorder: recorder}
}

var _ Store = (*InstrumentedStore)(nil)

// Name returns the wrapped store's name.
func (s *InstrumentedStore) Name() string { return s.next.Name() }

// Upload delegates and records size, latency and outcome.
func (s *InstrumentedStore) Upload(ctx context.Context, data []byte, suggestedName string) (domain.ContentLocator, error) {
	start := time.Now()
	loc, err := s.next.Upload(ctx, data, suggestedName)
	s.recorder.RecordUpload(s.next.Name(), len(data), time.Since(start), err)
	return loc, err
}
