package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/storage"
	"solana-cert-mint/internal/storage/postgres"
)

func mintedRecord(id, recipient, mint string, createdAt int64) *domain.IssuanceRecord {
	return &domain.IssuanceRecord{
		CertificateID:       id,
		RecipientAddress:    recipient,
		ImageURI:            "ipfs://QmImage" + id,
		MetadataURI:         "ipfs://QmMeta" + id,
		MintAddress:         mint,
		TokenAccount:        "Ata" + id,
		MetadataAccount:     "Meta" + id,
		CreateMintSignature: "sigCreate" + id,
		MintSignature:       "sigMint" + id,
		MetadataSignature:   "sigMeta" + id,
		Status:              domain.IssuanceMinted,
		CreatedAt:           createdAt,
	}
}

func TestIssuanceStore_InsertAndGet(t *testing.T) {
	pool := newMigratedPool(t)

	ctx := context.Background()
	store := postgres.NewIssuanceStore(pool)

	rec := mintedRecord("CERT123", "RecipientWallet1", "MintAddr1", 1717200000000)
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByCertificateID(ctx, "CERT123")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestIssuanceStore_NullableColumns(t *testing.T) {
	pool := newMigratedPool(t)

	ctx := context.Background()
	store := postgres.NewIssuanceStore(pool)

	rec := &domain.IssuanceRecord{
		CertificateID:    "CERT-FAILED",
		RecipientAddress: "RecipientWallet1",
		ImageURI:         "ipfs://QmImage",
		Status:           domain.IssuanceFailed,
		FailedStage:      "upload_metadata",
		Error:            "upload to pinata failed (status 503): service unavailable",
		CreatedAt:        1717200000000,
	}
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.GetByCertificateID(ctx, "CERT-FAILED")
	require.NoError(t, err)
	assert.Empty(t, got.MintAddress)
	assert.Empty(t, got.MetadataURI)
	assert.Equal(t, domain.IssuanceFailed, got.Status)
	assert.Equal(t, rec.Error, got.Error)

	// Two failed runs without a mint do not collide on the mint index
	other := *rec
	other.CertificateID = "CERT-FAILED-2"
	require.NoError(t, store.Insert(ctx, &other))
}

func TestIssuanceStore_Duplicate(t *testing.T) {
	pool := newMigratedPool(t)

	ctx := context.Background()
	store := postgres.NewIssuanceStore(pool)

	require.NoError(t, store.Insert(ctx, mintedRecord("CERT1", "w1", "MintA", 1000)))

	err := store.Insert(ctx, mintedRecord("CERT1", "w1", "MintB", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same mint under another certificate
	err = store.Insert(ctx, mintedRecord("CERT2", "w1", "MintA", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestIssuanceStore_NotFound(t *testing.T) {
	pool := newMigratedPool(t)

	_, err := postgres.NewIssuanceStore(pool).GetByCertificateID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIssuanceStore_GetByRecipient(t *testing.T) {
	pool := newMigratedPool(t)

	ctx := context.Background()
	store := postgres.NewIssuanceStore(pool)

	require.NoError(t, store.Insert(ctx, mintedRecord("CERT3", "w1", "Mint3", 3000)))
	require.NoError(t, store.Insert(ctx, mintedRecord("CERT1", "w1", "Mint1", 1000)))
	require.NoError(t, store.Insert(ctx, mintedRecord("CERT2", "w2", "Mint2", 2000)))

	got, err := store.GetByRecipient(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "CERT1", got[0].CertificateID)
	assert.Equal(t, "CERT3", got[1].CertificateID)
}
