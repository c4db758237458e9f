package contentstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-cert-mint/internal/contentstore"
	"solana-cert-mint/internal/contentstore/stub"
)

func TestCachingStore_ReusesLocator(t *testing.T) {
	inner := stub.NewStore()
	s := contentstore.NewCachingStore(inner, 0)

	a, err := s.Upload(context.Background(), []byte("same"), "a.png")
	require.NoError(t, err)
	b, err := s.Upload(context.Background(), []byte("same"), "b.png")
	require.NoError(t, err)
	c, err := s.Upload(context.Background(), []byte("other"), "c.png")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, inner.Uploads(), 2)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "stub", s.Name())
}

func TestCachingStore_DoesNotCacheFailures(t *testing.T) {
	inner := stub.NewStore()
	inner.Err = errors.New("boom")
	s := contentstore.NewCachingStore(inner, time.Minute)

	_, err := s.Upload(context.Background(), []byte("x"), "a.png")
	require.Error(t, err)

	inner.Err = nil
	_, err = s.Upload(context.Background(), []byte("x"), "a.png")
	require.NoError(t, err)
	assert.Len(t, inner.Uploads(), 2)
}

func TestRateLimitedStore_CancelledContext(t *testing.T) {
	inner := stub.NewStore()
	s := contentstore.NewRateLimitedStore(inner, 0.001, 1)

	_, err := s.Upload(context.Background(), []byte("x"), "a.png")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = s.Upload(ctx, []byte("y"), "b.png")
	assert.Error(t, err)
	assert.Len(t, inner.Uploads(), 1)
}

type recorder struct {
	stores []string
	sizes  []int
	errs   []error
}

func (r *recorder) RecordUpload(store string, size int, _ time.Duration, err error) {
	r.stores = append(r.stores, store)
	r.sizes = append(r.sizes, size)
	r.errs = append(r.errs, err)
}

func TestInstrumentedStore(t *testing.T) {
	inner := stub.NewStore()
	rec := &recorder{}
	s := contentstore.NewInstrumentedStore(inner, rec)

	_, err := s.Upload(context.Background(), []byte("abc"), "a.png")
	require.NoError(t, err)

	inner.Err = errors.New("down")
	_, err = s.Upload(context.Background(), []byte("abcd"), "b.png")
	require.Error(t, err)

	assert.Equal(t, []string{"stub", "stub"}, rec.stores)
	assert.Equal(t, []int{3, 4}, rec.sizes)
	assert.NoError(t, rec.errs[0])
	assert.Error(t, rec.errs[1])
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"certificate_1.png": "image/png",
		"metadata.json":     "application/json",
		"METADATA.JSON":     "application/json",
		"noext":             "application/octet-stream",
		"":                  "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, contentstore.ContentType(name), name)
	}
}
