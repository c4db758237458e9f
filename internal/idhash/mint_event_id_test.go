package idhash

import (
	"testing"
)

func TestComputeMintEventID(t *testing.T) {
	tests := []struct {
		name          string
		certificateID string
		stage         string
		status        string
		signature     string
		timestamp     int64
	}{
		{
			name:          "committed stage",
			certificateID: "CERT123",
			stage:         "account_creation",
			status:        "ok",
			signature:     "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW",
			timestamp:     1717200000000,
		},
		{
			name:          "upload failure",
			certificateID: "CERT123",
			stage:         "upload_image",
			status:        "failed",
			timestamp:     1717200000123,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeMintEventID(tt.certificateID, tt.stage, tt.status, tt.signature, tt.timestamp)

			if len(got) != 64 {
				t.Errorf("ComputeMintEventID() length = %d, want 64", len(got))
			}

			// Same inputs should produce same output
			got2 := ComputeMintEventID(tt.certificateID, tt.stage, tt.status, tt.signature, tt.timestamp)
			if got != got2 {
				t.Errorf("ComputeMintEventID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeMintEventID_Uniqueness(t *testing.T) {
	base := ComputeMintEventID("CERT123", "mint", "ok", "sig", 1000)

	variants := map[string]string{
		"certificate": ComputeMintEventID("CERT124", "mint", "ok", "sig", 1000),
		"stage":       ComputeMintEventID("CERT123", "metadata", "ok", "sig", 1000),
		"status":      ComputeMintEventID("CERT123", "mint", "failed", "sig", 1000),
		"signature":   ComputeMintEventID("CERT123", "mint", "ok", "sig2", 1000),
		"timestamp":   ComputeMintEventID("CERT123", "mint", "ok", "sig", 1001),
	}

	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}

func TestComputeMintEventID_Known(t *testing.T) {
	// SHA256("a|b|c|d|1")
	want := "23b617ef7fddefb2bf5ad2486d82d674c512a25778aeeb0448b6c45bf782e4af"
	if got := ComputeMintEventID("a", "b", "c", "d", 1); got != want {
		t.Errorf("ComputeMintEventID() = %s, want %s", got, want)
	}
}
