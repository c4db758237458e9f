package domain

// Stage identifies a step of the mint protocol.
type Stage string

const (
	StageAccountCreation Stage = "account_creation" // mint account create + initialize
	StageMint            Stage = "mint"             // associated account + mint 1 unit
	StageMetadata        Stage = "metadata"         // metadata account creation
)

// MintKeys holds the derived addresses of one mint run.
// Token and metadata accounts are pure functions of the mint address.
type MintKeys struct {
	Mint            string // base58 mint account
	TokenAccount    string // associated token account (owner = recipient)
	MetadataAccount string // metadata PDA
}

// MintResult is the outcome of a mint run. Immutable once returned.
type MintResult struct {
	MintAddress         string
	TokenAccount        string
	MetadataAccount     string
	CreateMintSignature string // mint account creation tx
	MintSignature       string // associated account + mint-to tx
	MetadataSignature   string // metadata account tx
	Success             bool
}

// Keys returns the addresses recorded in the result.
func (r MintResult) Keys() MintKeys {
	return MintKeys{
		Mint:            r.MintAddress,
		TokenAccount:    r.TokenAccount,
		MetadataAccount: r.MetadataAccount,
	}
}
