package domain

// IssuanceStatus is the terminal state of an issuance run.
type IssuanceStatus string

const (
	IssuanceMinted         IssuanceStatus = "minted"          // all transactions confirmed
	IssuanceMetadataFailed IssuanceStatus = "metadata_failed" // token minted, metadata missing
	IssuanceMintFailed     IssuanceStatus = "mint_failed"     // mint account may exist, no token
	IssuanceFailed         IssuanceStatus = "failed"          // nothing committed on-chain
)

// IssuanceRecord persists the derived artifacts of an issuance run.
// Corresponds to certificate_issuances table in PostgreSQL.
type IssuanceRecord struct {
	CertificateID       string         // PK
	RecipientAddress    string         // recipient wallet (base58)
	ImageURI            string         // image locator (nullable as "")
	MetadataURI         string         // metadata locator (nullable as "")
	MintAddress         string         // mint account (nullable as "")
	TokenAccount        string         // associated token account
	MetadataAccount     string         // metadata PDA
	CreateMintSignature string         // account creation tx
	MintSignature       string         // mint tx
	MetadataSignature   string         // metadata tx
	Status              IssuanceStatus // terminal status
	FailedStage         string         // stage that failed (empty on success)
	Error               string         // error message (empty on success)
	CreatedAt           int64          // record creation timestamp (ms)
}

// MintEventStatus is the outcome of one stage.
type MintEventStatus string

const (
	MintEventOK     MintEventStatus = "ok"
	MintEventFailed MintEventStatus = "failed"
)

// MintEvent records one pipeline stage outcome.
// Corresponds to mint_events table in ClickHouse.
type MintEvent struct {
	EventID       string          // deterministic hash, see idhash.ComputeMintEventID
	CertificateID string          // issuance the event belongs to
	Stage         string          // upload_image, upload_metadata, or a mint Stage
	Status        MintEventStatus // ok / failed
	Signature     string          // tx signature when the stage commits one
	Address       string          // primary address touched by the stage
	DurationMs    int64           // stage wall time
	Error         string          // failure message
	Timestamp     int64           // stage end (ms)
}
