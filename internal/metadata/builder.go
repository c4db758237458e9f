// Package metadata assembles the off-chain JSON record a certificate token points at.
package metadata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"solana-cert-mint/internal/domain"
)

// DefaultInstitution is the issuing institution printed in the attributes.
const DefaultInstitution = domain.DefaultInstitution

// Fixed record fields.
const (
	CategoryImage = "image"
	ImageMIMEType = "image/png"
)

//go:embed schema.json
var schemaJSON []byte

var recordSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("compile metadata schema: %v", err))
	}
	return schema
}

// Options configures a Builder.
type Options struct {
	// Institution defaults to DefaultInstitution.
	Institution string
	// CreatorAddress is the base58 minting authority, listed as sole creator.
	CreatorAddress string
}

// Builder turns certificate facts into metadata records.
// It holds only fixed configuration and is safe for concurrent use.
type Builder struct {
	institution string
	creator     string
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	institution := opts.Institution
	if institution == "" {
		institution = DefaultInstitution
	}
	return &Builder{
		institution: institution,
		creator:     opts.CreatorAddress,
	}
}

// ValidateFact rejects facts with empty fields or a prefixed name over the on-chain limit.
func ValidateFact(fact domain.CertificateFact) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", fact.Name},
		{"activity", fact.Activity},
		{"date", fact.Date},
		{"id", fact.ID},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.NewValidationError(f.name, "must not be empty")
		}
		if !utf8.ValidString(f.value) {
			return domain.NewValidationError(f.name, "must be valid UTF-8")
		}
	}

	if n := len(domain.PrefixedName(fact.Name)); n > domain.MaxNameBytes {
		return domain.NewValidationError("name",
			fmt.Sprintf("prefixed name is %d bytes, limit is %d", n, domain.MaxNameBytes))
	}
	return nil
}

// Build assembles the record for fact with image as the primary file.
func (b *Builder) Build(fact domain.CertificateFact, image domain.ContentLocator) (domain.NFTMetadataRecord, error) {
	if err := ValidateFact(fact); err != nil {
		return domain.NFTMetadataRecord{}, err
	}
	if !image.IsContentAddressed() {
		return domain.NFTMetadataRecord{}, domain.NewValidationError("image", "invalid image URI")
	}
	if b.creator == "" {
		return domain.NFTMetadataRecord{}, domain.NewValidationError("creator", "must not be empty")
	}

	return domain.NFTMetadataRecord{
		Name:        domain.PrefixedName(fact.Name),
		Symbol:      domain.CertificateSymbol,
		Description: fmt.Sprintf("Digital certificate for %s issued to %s", fact.Activity, fact.Name),
		Image:       image,
		ExternalURL: image,
		Attributes: []domain.Attribute{
			{TraitType: domain.TraitRecipient, Value: fact.Name},
			{TraitType: domain.TraitActivity, Value: fact.Activity},
			{TraitType: domain.TraitDateIssued, Value: fact.Date},
			{TraitType: domain.TraitInstitution, Value: b.institution},
			{TraitType: domain.TraitCertificateID, Value: fact.ID},
		},
		Properties: domain.TokenProperties{
			Category: CategoryImage,
			Files:    []domain.FileRef{{URI: image, Type: ImageMIMEType}},
			Creators: []domain.Creator{{Address: b.creator, Share: domain.CreatorShare}},
		},
	}, nil
}

// Marshal encodes the record as indented JSON after checking it against the record schema.
func Marshal(record domain.NFTMetadataRecord) ([]byte, error) {
	if err := Validate(record); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

// Validate checks a record against the embedded JSON schema.
func Validate(record domain.NFTMetadataRecord) error {
	result, err := recordSchema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.NewValidationError("metadata", strings.Join(msgs, "; "))
	}
	return nil
}
