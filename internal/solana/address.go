package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeySize is the length of an ed25519 public key.
const PublicKeySize = 32

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// Well-known program and sysvar addresses.
var (
	SystemProgramID          = MustPublicKey("11111111111111111111111111111111")
	TokenProgramID           = MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = MustPublicKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	TokenMetadataProgramID   = MustPublicKey("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	SysvarRentID             = MustPublicKey("SysvarRent111111111111111111111111111111111")
)

// ErrNoViableBump is returned when no bump seed yields an off-curve address.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// ErrOnCurve is returned when a candidate program address lies on the ed25519 curve.
var ErrOnCurve = errors.New("program address is on curve")

// PublicKey is a 32-byte Solana account address.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBase58 parses a base58 address.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	b, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("decode base58 %q: %w", s, err)
	}
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("invalid public key length %d for %q", len(b), s)
	}
	copy(pk[:], b)
	return pk, nil
}

// MustPublicKey parses a base58 address and panics on failure. Only for constants.
func MustPublicKey(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String returns the base58 encoding.
func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

// Bytes returns a copy of the key bytes.
func (p PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, p[:])
	return b
}

// IsZero reports whether p is the all-zero key.
func (p PublicKey) IsZero() bool {
	return p == PublicKey{}
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
func IsOnCurve(b []byte) bool {
	if len(b) != PublicKeySize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress hashes seeds with the program ID into a program address.
// Fails with ErrOnCurve if the result is a valid ed25519 point.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > maxSeeds {
		return PublicKey{}, fmt.Errorf("too many seeds: %d", len(seeds))
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return PublicKey{}, fmt.Errorf("seed too long: %d bytes", len(seed))
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var pk PublicKey
	copy(pk[:], h.Sum(nil))

	if IsOnCurve(pk[:]) {
		return PublicKey{}, ErrOnCurve
	}
	return pk, nil
}

// FindProgramAddress searches bump seeds from 255 downward and returns the first
// off-curve program address with its bump.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := byte(255); bump > 0; bump-- {
		withBump[len(seeds)] = []byte{bump}
		pk, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return pk, bump, nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return PublicKey{}, 0, err
		}
	}

	return PublicKey{}, 0, ErrNoViableBump
}

// FindAssociatedTokenAddress derives the canonical token account of owner for mint.
func FindAssociatedTokenAddress(owner, mint PublicKey) (PublicKey, error) {
	pk, _, err := FindProgramAddress(
		[][]byte{owner[:], TokenProgramID[:], mint[:]},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return pk, nil
}

// FindMetadataAddress derives the token metadata account for mint.
func FindMetadataAddress(mint PublicKey) (PublicKey, error) {
	pk, _, err := FindProgramAddress(
		[][]byte{[]byte("metadata"), TokenMetadataProgramID[:], mint[:]},
		TokenMetadataProgramID,
	)
	if err != nil {
		return PublicKey{}, fmt.Errorf("derive metadata account: %w", err)
	}
	return pk, nil
}
