package solana

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKey_RoundTrip(t *testing.T) {
	pk, err := PublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	require.NoError(t, err)
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", pk.String())
	assert.False(t, pk.IsZero())
	assert.True(t, SystemProgramID.IsZero())
}

func TestPublicKeyFromBase58_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not base58", "0OIl"},
		{"too short", "abc"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PublicKeyFromBase58(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestProgramIDs_MatchSDK(t *testing.T) {
	assert.Equal(t, common.TokenProgramID.ToBase58(), TokenProgramID.String())
	assert.Equal(t, common.SPLAssociatedTokenAccountProgramID.ToBase58(), AssociatedTokenProgramID.String())
	assert.Equal(t, common.MetaplexTokenMetaProgramID.ToBase58(), TokenMetadataProgramID.String())
	assert.Equal(t, common.SystemProgramID.ToBase58(), SystemProgramID.String())
}

func TestFindAssociatedTokenAddress_MatchesSDK(t *testing.T) {
	for i := 0; i < 5; i++ {
		owner := types.NewAccount().PublicKey
		mint := types.NewAccount().PublicKey

		got, err := FindAssociatedTokenAddress(PublicKey(owner), PublicKey(mint))
		require.NoError(t, err)

		want, _, err := common.FindAssociatedTokenAddress(owner, mint)
		require.NoError(t, err)

		assert.Equal(t, want.ToBase58(), got.String())
		assert.False(t, IsOnCurve(got[:]), "derived address must be off-curve")
	}
}

func TestFindMetadataAddress_MatchesSDK(t *testing.T) {
	for i := 0; i < 5; i++ {
		mint := types.NewAccount().PublicKey

		got, err := FindMetadataAddress(PublicKey(mint))
		require.NoError(t, err)

		want, err := token_metadata.GetTokenMetaPubkey(mint)
		require.NoError(t, err)

		assert.Equal(t, want.ToBase58(), got.String())
	}
}

func TestFindProgramAddress_Deterministic(t *testing.T) {
	owner := PublicKey(types.NewAccount().PublicKey)
	mint := PublicKey(types.NewAccount().PublicKey)

	a, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	b, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	_, err := CreateProgramAddress([][]byte{make([]byte, 33)}, TokenProgramID)
	assert.Error(t, err)

	seeds := make([][]byte, 17)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}
	_, err = CreateProgramAddress(seeds, TokenProgramID)
	assert.Error(t, err)
}

func TestIsOnCurve(t *testing.T) {
	acc := types.NewAccount()
	assert.True(t, IsOnCurve(acc.PublicKey.Bytes()), "ed25519 public keys lie on the curve")
	assert.False(t, IsOnCurve([]byte{1, 2, 3}))
}
