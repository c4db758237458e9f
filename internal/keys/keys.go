// Package keys restores the mint authority keypair from its configured source.
//
// All sources carry the solana-keygen keypair format: a JSON array of 64
// integers (32-byte seed followed by the 32-byte public key).
package keys

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	smpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

// ErrNoKeySource is returned when no key source is configured.
var ErrNoKeySource = errors.New("no mint authority key source configured")

// Source names where the keypair comes from. The first non-empty field wins.
type Source struct {
	JSON   string // inline keypair JSON
	File   string // path to a keypair JSON file
	Secret string // Secret Manager version, e.g. projects/p/secrets/s/versions/latest
}

// SecretReader reads a secret payload by version name.
type SecretReader interface {
	ReadSecret(ctx context.Context, name string) ([]byte, error)
}

// Load restores the keypair from src. secrets may be nil; a Secret Manager
// client is then created on demand.
func Load(ctx context.Context, src Source, secrets SecretReader) (types.Account, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case strings.TrimSpace(src.JSON) != "":
		data = []byte(src.JSON)
	case src.File != "":
		data, err = os.ReadFile(src.File)
		if err != nil {
			return types.Account{}, fmt.Errorf("read keypair file: %w", err)
		}
	case src.Secret != "":
		if secrets == nil {
			sm, err := NewSecretManagerReader(ctx)
			if err != nil {
				return types.Account{}, err
			}
			defer sm.Close()
			secrets = sm
		}
		data, err = secrets.ReadSecret(ctx, src.Secret)
		if err != nil {
			return types.Account{}, err
		}
	default:
		return types.Account{}, ErrNoKeySource
	}

	keyBytes, err := DecodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("restore account: %w", err)
	}
	return acc, nil
}

// DecodeKeypairJSON decodes a 64-entry JSON integer array into key bytes.
func DecodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}

	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair byte %d out of range: %d", i, v)
		}
		keyBytes[i] = byte(v)
	}

	// The trailing half must be the public key of the seed.
	derived := ed25519.NewKeyFromSeed(keyBytes[:ed25519.SeedSize]).Public().(ed25519.PublicKey)
	if !derived.Equal(ed25519.PublicKey(keyBytes[ed25519.SeedSize:])) {
		return nil, errors.New("keypair public key does not match its seed")
	}

	return keyBytes, nil
}

// SecretManagerReader reads secrets from GCP Secret Manager.
type SecretManagerReader struct {
	client *secretmanager.Client
}

// NewSecretManagerReader creates a client using application default credentials.
func NewSecretManagerReader(ctx context.Context) (*SecretManagerReader, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &SecretManagerReader{client: client}, nil
}

// ReadSecret returns the payload of the secret version name.
func (r *SecretManagerReader) ReadSecret(ctx context.Context, name string) ([]byte, error) {
	res, err := r.client.AccessSecretVersion(ctx, &smpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("access secret version %s: %w", name, err)
	}
	if res.GetPayload() == nil || len(res.GetPayload().GetData()) == 0 {
		return nil, fmt.Errorf("secret version %s is empty", name)
	}
	return res.GetPayload().GetData(), nil
}

// Close releases the client.
func (r *SecretManagerReader) Close() error {
	return r.client.Close()
}
