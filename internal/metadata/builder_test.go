package metadata

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-cert-mint/internal/domain"
)

const testCreator = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func testFact() domain.CertificateFact {
	return domain.CertificateFact{
		Name:     "Test User",
		Activity: "Test Event",
		Date:     "2024-06-01",
		ID:       "CERT123",
	}
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(Options{CreatorAddress: testCreator})
	image := domain.NewContentLocator(domain.SchemeIPFS, "QmImageHash")

	rec, err := b.Build(testFact(), image)
	require.NoError(t, err)

	assert.Equal(t, "Certificate - Test User", rec.Name)
	assert.Equal(t, "CERT", rec.Symbol)
	assert.Equal(t, "Digital certificate for Test Event issued to Test User", rec.Description)
	assert.Equal(t, image, rec.Image)
	assert.Equal(t, image, rec.ExternalURL)

	assert.Equal(t, "image", rec.Properties.Category)
	require.Len(t, rec.Properties.Files, 1)
	assert.Equal(t, image, rec.Properties.Files[0].URI)
	assert.Equal(t, "image/png", rec.Properties.Files[0].Type)
	require.Len(t, rec.Properties.Creators, 1)
	assert.Equal(t, testCreator, rec.Properties.Creators[0].Address)
	assert.Equal(t, 100, rec.Properties.Creators[0].Share)
}

func TestBuilder_AttributeOrder(t *testing.T) {
	b := NewBuilder(Options{CreatorAddress: testCreator})
	rec, err := b.Build(testFact(), "ipfs://QmImageHash")
	require.NoError(t, err)

	want := []domain.Attribute{
		{TraitType: "Recipient", Value: "Test User"},
		{TraitType: "Activity", Value: "Test Event"},
		{TraitType: "Date Issued", Value: "2024-06-01"},
		{TraitType: "Institution", Value: "Universitas Yudharta Pasuruan"},
		{TraitType: "Certificate ID", Value: "CERT123"},
	}
	assert.Equal(t, want, rec.Attributes)
}

func TestBuilder_CustomInstitution(t *testing.T) {
	b := NewBuilder(Options{Institution: "Open University", CreatorAddress: testCreator})
	rec, err := b.Build(testFact(), "ipfs://QmImageHash")
	require.NoError(t, err)

	assert.Equal(t, "Open University", rec.Attributes[3].Value)
}

func TestValidateFact(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.CertificateFact)
		wantField string
	}{
		{"valid", func(f *domain.CertificateFact) {}, ""},
		{"empty name", func(f *domain.CertificateFact) { f.Name = "" }, "name"},
		{"blank activity", func(f *domain.CertificateFact) { f.Activity = "   " }, "activity"},
		{"empty date", func(f *domain.CertificateFact) { f.Date = "" }, "date"},
		{"empty id", func(f *domain.CertificateFact) { f.ID = "" }, "id"},
		{"name at limit", func(f *domain.CertificateFact) { f.Name = strings.Repeat("a", 18) }, ""},
		{"name over limit", func(f *domain.CertificateFact) { f.Name = strings.Repeat("a", 19) }, "name"},
		// 9 two-byte runes: 14 + 18 bytes fits, one more does not
		{"multibyte at limit", func(f *domain.CertificateFact) { f.Name = strings.Repeat("é", 9) }, ""},
		{"multibyte over limit", func(f *domain.CertificateFact) { f.Name = strings.Repeat("é", 10) }, "name"},
		{"invalid utf8", func(f *domain.CertificateFact) { f.Activity = "\xff" }, "activity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fact := testFact()
			tt.mutate(&fact)

			err := ValidateFact(fact)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestBuilder_RejectsBadImage(t *testing.T) {
	b := NewBuilder(Options{CreatorAddress: testCreator})

	for _, image := range []domain.ContentLocator{"", "http://localhost:8080/a.png", "https://example.com/a.png"} {
		_, err := b.Build(testFact(), image)
		var vErr *domain.ValidationError
		assert.True(t, errors.As(err, &vErr), "image %q should be rejected", image)
	}
}

func TestBuilder_RequiresCreator(t *testing.T) {
	b := NewBuilder(Options{})
	_, err := b.Build(testFact(), "ipfs://QmImageHash")

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "creator", vErr.Field)
}

func TestMarshal(t *testing.T) {
	b := NewBuilder(Options{CreatorAddress: testCreator})
	rec, err := b.Build(testFact(), "ipfs://QmImageHash")
	require.NoError(t, err)

	data, err := Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "Certificate - Test User", decoded["name"])
	assert.Equal(t, "ipfs://QmImageHash", decoded["external_url"])

	attrs := decoded["attributes"].([]interface{})
	require.Len(t, attrs, 5)
	first := attrs[0].(map[string]interface{})
	assert.Equal(t, "Recipient", first["trait_type"])

	props := decoded["properties"].(map[string]interface{})
	creators := props["creators"].([]interface{})
	assert.Equal(t, float64(100), creators[0].(map[string]interface{})["share"])
}

func TestValidate_SchemaViolation(t *testing.T) {
	rec := domain.NFTMetadataRecord{
		Name:   "Certificate - Test User",
		Symbol: "CERT",
		Image:  "ipfs://QmImageHash",
	}

	err := Validate(rec)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
	assert.Equal(t, "metadata", vErr.Field)
}
