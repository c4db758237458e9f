package domain

// Fixed metadata constants for certificate tokens.
const (
	// NamePrefix is prepended to the recipient name for the on-chain token name.
	NamePrefix = "Certificate - "

	// CertificateSymbol is the fixed token symbol.
	CertificateSymbol = "CERT"

	// MaxNameBytes is the on-chain limit for the prefixed name.
	MaxNameBytes = 32

	// MaxSymbolBytes is the on-chain limit for the symbol.
	MaxSymbolBytes = 10

	// MaxURIBytes is the on-chain limit for the metadata URI.
	MaxURIBytes = 200

	// CreatorShare is the royalty share of the single creator.
	CreatorShare = 100
)

// Attribute trait names, in contract order.
const (
	TraitRecipient     = "Recipient"
	TraitActivity      = "Activity"
	TraitDateIssued    = "Date Issued"
	TraitInstitution   = "Institution"
	TraitCertificateID = "Certificate ID"
)

// NFTMetadataRecord is the off-chain JSON record the on-chain metadata URI points at.
type NFTMetadataRecord struct {
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Description string          `json:"description"`
	Image       ContentLocator  `json:"image"`
	ExternalURL ContentLocator  `json:"external_url"`
	Attributes  []Attribute     `json:"attributes"`
	Properties  TokenProperties `json:"properties"`
}

// Attribute is an ordered trait entry.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// TokenProperties holds file references and creators.
type TokenProperties struct {
	Category string    `json:"category"`
	Files    []FileRef `json:"files"`
	Creators []Creator `json:"creators"`
}

// FileRef references an uploaded file.
type FileRef struct {
	URI  ContentLocator `json:"uri"`
	Type string         `json:"type"`
}

// Creator is a creator entry with its royalty share.
type Creator struct {
	Address string `json:"address"`
	Share   int    `json:"share"`
}

// PrefixedName returns the on-chain token name for a recipient.
func PrefixedName(recipient string) string {
	return NamePrefix + recipient
}
