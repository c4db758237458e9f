package metaplex

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/solana"
)

// DiscriminatorCreateMetadataAccountV3 tags the CreateMetadataAccountV3 instruction.
const DiscriminatorCreateMetadataAccountV3 uint8 = 33

// SellerFeeBasisPoints is fixed: certificates carry no royalties.
const SellerFeeBasisPoints uint16 = 0

// Fixed flags of the certificate metadata.
const (
	CreatorVerified = true
	IsMutable       = false
)

// fixedLen is the encoded size excluding the three string bodies:
// tag + 3 length prefixes + fee + creators(some, count, address, verified, share)
// + collection + uses + isMutable + collectionDetails.
const fixedLen = 1 + 3*4 + 2 + (1 + 4 + solana.PublicKeySize + 1 + 1) + 1 + 1 + 1 + 1

// EncodedLen returns the exact encoded size for the given strings.
func EncodedLen(name, symbol, uri string) int {
	return fixedLen + len(name) + len(symbol) + len(uri)
}

// ValidateFields checks the on-chain size limits of the metadata strings.
func ValidateFields(name, symbol, uri string) error {
	if len(name) > domain.MaxNameBytes {
		return &domain.EncodingError{Field: "name", Reason: fmt.Sprintf("%d bytes exceeds %d", len(name), domain.MaxNameBytes)}
	}
	if len(symbol) > domain.MaxSymbolBytes {
		return &domain.EncodingError{Field: "symbol", Reason: fmt.Sprintf("%d bytes exceeds %d", len(symbol), domain.MaxSymbolBytes)}
	}
	if len(uri) > domain.MaxURIBytes {
		return &domain.EncodingError{Field: "uri", Reason: fmt.Sprintf("%d bytes exceeds %d", len(uri), domain.MaxURIBytes)}
	}
	return nil
}

// EncodeCreateMetadataV3 serializes CreateMetadataAccountV3 instruction data with a single
// verified creator holding the full share, no collection, no uses and immutable metadata.
func EncodeCreateMetadataV3(name, symbol, uri string, creator solana.PublicKey) ([]byte, error) {
	if err := ValidateFields(name, symbol, uri); err != nil {
		return nil, err
	}

	e := NewEncoder(EncodedLen(name, symbol, uri))
	e.WriteU8(DiscriminatorCreateMetadataAccountV3)

	// DataV2
	if err := e.WriteString("name", name); err != nil {
		return nil, err
	}
	if err := e.WriteString("symbol", symbol); err != nil {
		return nil, err
	}
	if err := e.WriteString("uri", uri); err != nil {
		return nil, err
	}
	e.WriteU16(SellerFeeBasisPoints)

	e.WriteOptionSome()
	e.WriteU32(1)
	if err := e.WriteFixedBytes("creator", creator[:], solana.PublicKeySize); err != nil {
		return nil, err
	}
	e.WriteBool(CreatorVerified)
	e.WriteU8(domain.CreatorShare)

	e.WriteOptionNone() // collection
	e.WriteOptionNone() // uses

	e.WriteBool(IsMutable)
	e.WriteOptionNone() // collection details

	return e.Bytes(), nil
}

// CreateMetadataAccounts lists the accounts of a CreateMetadataAccountV3 instruction.
type CreateMetadataAccounts struct {
	Metadata        solana.PublicKey
	Mint            solana.PublicKey
	MintAuthority   solana.PublicKey
	Payer           solana.PublicKey
	UpdateAuthority solana.PublicKey
}

// CreateMetadataAccountV3 builds the instruction from pre-encoded data.
func CreateMetadataAccountV3(accounts CreateMetadataAccounts, data []byte) types.Instruction {
	return types.Instruction{
		ProgramID: common.PublicKey(solana.TokenMetadataProgramID),
		Accounts: []types.AccountMeta{
			{PubKey: common.PublicKey(accounts.Metadata), IsSigner: false, IsWritable: true},
			{PubKey: common.PublicKey(accounts.Mint), IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKey(accounts.MintAuthority), IsSigner: true, IsWritable: false},
			{PubKey: common.PublicKey(accounts.Payer), IsSigner: true, IsWritable: true},
			{PubKey: common.PublicKey(accounts.UpdateAuthority), IsSigner: false, IsWritable: false},
			{PubKey: common.PublicKey(solana.SystemProgramID), IsSigner: false, IsWritable: false},
		},
		Data: data,
	}
}
