package memory

import (
	"context"
	"errors"
	"testing"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/storage"
)

func testRecord(id, recipient string, createdAt int64) *domain.IssuanceRecord {
	return &domain.IssuanceRecord{
		CertificateID:    id,
		RecipientAddress: recipient,
		ImageURI:         "ipfs://QmImage" + id,
		MetadataURI:      "ipfs://QmMeta" + id,
		MintAddress:      "Mint" + id,
		Status:           domain.IssuanceMinted,
		CreatedAt:        createdAt,
	}
}

func TestIssuanceStore_InsertAndGet(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRecord("CERT1", "wallet1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByCertificateID(ctx, "CERT1")
	if err != nil {
		t.Fatalf("GetByCertificateID failed: %v", err)
	}
	if got.MintAddress != "MintCERT1" {
		t.Errorf("MintAddress mismatch: got %s, want MintCERT1", got.MintAddress)
	}

	// Returned record is a copy
	got.Status = domain.IssuanceFailed
	again, _ := store.GetByCertificateID(ctx, "CERT1")
	if again.Status != domain.IssuanceMinted {
		t.Errorf("stored record mutated through returned pointer")
	}
}

func TestIssuanceStore_Duplicate(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRecord("CERT1", "wallet1", 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Insert(ctx, testRecord("CERT1", "wallet2", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestIssuanceStore_InvalidInput(t *testing.T) {
	store := NewIssuanceStore()

	if err := store.Insert(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(context.Background(), &domain.IssuanceRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestIssuanceStore_NotFound(t *testing.T) {
	store := NewIssuanceStore()

	_, err := store.GetByCertificateID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIssuanceStore_GetByRecipient(t *testing.T) {
	store := NewIssuanceStore()
	ctx := context.Background()

	for _, r := range []*domain.IssuanceRecord{
		testRecord("CERT3", "wallet1", 3000),
		testRecord("CERT1", "wallet1", 1000),
		testRecord("CERT2", "wallet2", 2000),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByRecipient(ctx, "wallet1")
	if err != nil {
		t.Fatalf("GetByRecipient failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].CertificateID != "CERT1" || got[1].CertificateID != "CERT3" {
		t.Errorf("expected created_at order CERT1, CERT3; got %s, %s", got[0].CertificateID, got[1].CertificateID)
	}

	none, err := store.GetByRecipient(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetByRecipient failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records, got %d", len(none))
	}
}
