package metaplex

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/solana"
)

func TestEncodeCreateMetadataV3_GoldenVector(t *testing.T) {
	name := "Certificate - Ada"
	symbol := "CERT"
	uri := "ipfs://abc123"

	got, err := EncodeCreateMetadataV3(name, symbol, uri, solana.PublicKey{})
	require.NoError(t, err)

	want := []byte{33}
	want = append(want, 17, 0, 0, 0)
	want = append(want, "Certificate - Ada"...)
	want = append(want, 4, 0, 0, 0)
	want = append(want, "CERT"...)
	want = append(want, 13, 0, 0, 0)
	want = append(want, "ipfs://abc123"...)
	// seller fee, creators present, one creator
	want = append(want, 0, 0, 1, 1, 0, 0, 0)
	want = append(want, make([]byte, 32)...) // creator address
	want = append(want,
		1,   // verified
		100, // share
		0,   // collection: none
		0,   // uses: none
		0,   // is mutable
		0,   // collection details: none
	)

	assert.Equal(t, want, got)
	assert.Equal(t, 1+(4+len(name))+(4+len(symbol))+(4+len(uri))+2+1+4+32+1+1+1+1+1+1, len(got))
	assert.Equal(t, 92, len(got))
	assert.Equal(t, DiscriminatorCreateMetadataAccountV3, got[0])
}

func TestEncodeCreateMetadataV3_LengthDeterminedByStrings(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		uri    string
	}{
		{"", "", ""},
		{"Certificate - X", "CERT", "ar://abc"},
		{"Certificate - Ünïcödé", "CERT", "ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"},
	}

	creator := solana.PublicKey(types.NewAccount().PublicKey)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeCreateMetadataV3(tt.name, tt.symbol, tt.uri, creator)
			require.NoError(t, err)
			assert.Equal(t, EncodedLen(tt.name, tt.symbol, tt.uri), len(got))
			assert.Equal(t, 58+len(tt.name)+len(tt.symbol)+len(tt.uri), len(got))
		})
	}
}

func TestEncodeCreateMetadataV3_CreatorPlacement(t *testing.T) {
	creator := solana.PublicKey(types.NewAccount().PublicKey)
	got, err := EncodeCreateMetadataV3("Certificate - Ada", "CERT", "ipfs://abc123", creator)
	require.NoError(t, err)

	// tag + three strings + fee + option tag + count
	offset := 1 + (4 + 17) + (4 + 4) + (4 + 13) + 2 + 1 + 4
	assert.True(t, bytes.Equal(creator[:], got[offset:offset+32]))
}

func TestEncodeCreateMetadataV3_NoLengthCaching(t *testing.T) {
	a, err := EncodeCreateMetadataV3("Certificate - Ada", "CERT", "ipfs://a", solana.PublicKey{})
	require.NoError(t, err)
	b, err := EncodeCreateMetadataV3("Certificate - Bob Smith", "CERT", "ipfs://a", solana.PublicKey{})
	require.NoError(t, err)

	assert.Equal(t, byte(17), a[1])
	assert.Equal(t, byte(23), b[1])
	assert.Equal(t, len(a)+6, len(b))
}

func TestEncodeCreateMetadataV3_MatchesSDK(t *testing.T) {
	creator := types.NewAccount().PublicKey
	name := "Certificate - Test User"
	symbol := domain.CertificateSymbol
	uri := "ipfs://bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"

	got, err := EncodeCreateMetadataV3(name, symbol, uri, solana.PublicKey(creator))
	require.NoError(t, err)

	mint := types.NewAccount().PublicKey
	meta, err := token_metadata.GetTokenMetaPubkey(mint)
	require.NoError(t, err)

	ref := token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                meta,
		Mint:                    mint,
		MintAuthority:           creator,
		Payer:                   creator,
		UpdateAuthority:         creator,
		UpdateAuthorityIsSigner: false,
		IsMutable:               false,
		Data: token_metadata.DataV2{
			Name:                 name,
			Symbol:               symbol,
			Uri:                  uri,
			SellerFeeBasisPoints: 0,
			Creators: &[]token_metadata.Creator{
				{Address: creator, Verified: true, Share: 100},
			},
		},
	})

	assert.Equal(t, ref.Data, got)
}

func TestEncodeCreateMetadataV3_Errors(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		symbol    string
		uri       string
		wantField string
	}{
		{"name too long", strings.Repeat("a", 33), "CERT", "ipfs://x", "name"},
		{"symbol too long", "Certificate - A", strings.Repeat("S", 11), "ipfs://x", "symbol"},
		{"uri too long", "Certificate - A", "CERT", "ipfs://" + strings.Repeat("x", 194), "uri"},
		{"invalid utf8", "Certificate - \xff", "CERT", "ipfs://x", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeCreateMetadataV3(tt.fieldName, tt.symbol, tt.uri, solana.PublicKey{})
			require.Error(t, err)

			var encErr *domain.EncodingError
			require.True(t, errors.As(err, &encErr), "expected EncodingError, got %T", err)
			assert.Equal(t, tt.wantField, encErr.Field)
		})
	}
}

func TestEncodeCreateMetadataV3_Boundaries(t *testing.T) {
	_, err := EncodeCreateMetadataV3(strings.Repeat("a", 32), strings.Repeat("S", 10), "ipfs://"+strings.Repeat("x", 193), solana.PublicKey{})
	assert.NoError(t, err)
}

func TestCreateMetadataAccountV3_Accounts(t *testing.T) {
	authority := solana.PublicKey(types.NewAccount().PublicKey)
	mint := solana.PublicKey(types.NewAccount().PublicKey)
	meta, err := solana.FindMetadataAddress(mint)
	require.NoError(t, err)

	ix := CreateMetadataAccountV3(CreateMetadataAccounts{
		Metadata:        meta,
		Mint:            mint,
		MintAuthority:   authority,
		Payer:           authority,
		UpdateAuthority: authority,
	}, []byte{33})

	assert.Equal(t, common.MetaplexTokenMetaProgramID, ix.ProgramID)
	require.Len(t, ix.Accounts, 6)

	expected := []struct {
		key      solana.PublicKey
		signer   bool
		writable bool
	}{
		{meta, false, true},
		{mint, false, false},
		{authority, true, false},
		{authority, true, true},
		{authority, false, false},
		{solana.SystemProgramID, false, false},
	}
	for i, e := range expected {
		assert.Equal(t, common.PublicKey(e.key), ix.Accounts[i].PubKey, "account %d", i)
		assert.Equal(t, e.signer, ix.Accounts[i].IsSigner, "account %d signer", i)
		assert.Equal(t, e.writable, ix.Accounts[i].IsWritable, "account %d writable", i)
	}
	assert.Equal(t, []byte{33}, ix.Data)
}
