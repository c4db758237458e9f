package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/storage"
)

// IssuanceStore implements storage.IssuanceStore using PostgreSQL.
type IssuanceStore struct {
	pool *Pool
}

// NewIssuanceStore creates a new IssuanceStore.
func NewIssuanceStore(pool *Pool) *IssuanceStore {
	return &IssuanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.IssuanceStore = (*IssuanceStore)(nil)

const issuanceColumns = `
	certificate_id, recipient_address, image_uri, metadata_uri,
	mint_address, token_account, metadata_account,
	create_mint_signature, mint_signature, metadata_signature,
	status, failed_stage, error, created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if certificate_id or mint_address exists.
func (s *IssuanceStore) Insert(ctx context.Context, r *domain.IssuanceRecord) error {
	if r == nil || r.CertificateID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO certificate_issuances (` + issuanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		r.CertificateID,
		r.RecipientAddress,
		nullable(r.ImageURI),
		nullable(r.MetadataURI),
		nullable(r.MintAddress),
		nullable(r.TokenAccount),
		nullable(r.MetadataAccount),
		nullable(r.CreateMintSignature),
		nullable(r.MintSignature),
		nullable(r.MetadataSignature),
		string(r.Status),
		nullable(r.FailedStage),
		nullable(r.Error),
		r.CreatedAt,
	)
	return translate("insert issuance", err)
}

// GetByCertificateID retrieves a record by certificate ID. Returns ErrNotFound if not exists.
func (s *IssuanceStore) GetByCertificateID(ctx context.Context, certificateID string) (*domain.IssuanceRecord, error) {
	query := `SELECT ` + issuanceColumns + ` FROM certificate_issuances WHERE certificate_id = $1`

	row := s.pool.QueryRow(ctx, query, certificateID)
	r, err := scanIssuance(row)
	if err != nil {
		return nil, translate("get issuance by id", err)
	}
	return r, nil
}

// GetByRecipient retrieves all records for a recipient, ordered by created_at ASC.
func (s *IssuanceStore) GetByRecipient(ctx context.Context, recipient string) ([]*domain.IssuanceRecord, error) {
	query := `
		SELECT ` + issuanceColumns + `
		FROM certificate_issuances
		WHERE recipient_address = $1
		ORDER BY created_at ASC, certificate_id ASC
	`

	rows, err := s.pool.Query(ctx, query, recipient)
	if err != nil {
		return nil, fmt.Errorf("query issuances by recipient: %w", err)
	}
	defer rows.Close()

	var result []*domain.IssuanceRecord
	for rows.Next() {
		r, err := scanIssuance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issuance: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuances: %w", err)
	}
	return result, nil
}

// scanIssuance scans a single row into IssuanceRecord.
func scanIssuance(row pgx.Row) (*domain.IssuanceRecord, error) {
	var (
		r                                          domain.IssuanceRecord
		status                                     string
		imageURI, metadataURI                      *string
		mintAddress, tokenAccount, metadataAccount *string
		createSig, mintSig, metadataSig            *string
		failedStage, errMsg                        *string
	)

	err := row.Scan(
		&r.CertificateID,
		&r.RecipientAddress,
		&imageURI,
		&metadataURI,
		&mintAddress,
		&tokenAccount,
		&metadataAccount,
		&createSig,
		&mintSig,
		&metadataSig,
		&status,
		&failedStage,
		&errMsg,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.ImageURI = deref(imageURI)
	r.MetadataURI = deref(metadataURI)
	r.MintAddress = deref(mintAddress)
	r.TokenAccount = deref(tokenAccount)
	r.MetadataAccount = deref(metadataAccount)
	r.CreateMintSignature = deref(createSig)
	r.MintSignature = deref(mintSig)
	r.MetadataSignature = deref(metadataSig)
	r.Status = domain.IssuanceStatus(status)
	r.FailedStage = deref(failedStage)
	r.Error = deref(errMsg)

	return &r, nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
