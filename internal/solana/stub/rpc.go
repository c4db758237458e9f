package stub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"

	"solana-cert-mint/internal/solana"
)

// ErrSendRejected is returned by SendTransaction when RejectSends is set.
var ErrSendRejected = errors.New("transaction rejected")

// RPCClient implements solana.RPCClient for testing.
// Sent transactions are recorded and, with AutoConfirm, immediately reported as confirmed.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string]*solana.AccountInfo
	Statuses      map[string]*solana.SignatureStatus
	Blockhash     string
	RentExemption uint64
	AutoConfirm   bool
	RejectSends   bool

	Sent        [][]byte
	StatusCalls int
}

// NewRPCClient creates a new stub RPC client that confirms every submitted transaction.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string]*solana.AccountInfo),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Blockhash:     "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
		RentExemption: 1461600,
		AutoConfirm:   true,
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

// GetAccountInfo returns a stored account or nil when absent.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &solana.LatestBlockhash{Blockhash: c.Blockhash, LastValidBlockHeight: 1000}, nil
}

// GetMinimumBalanceForRentExemption returns the configured rent-exempt minimum.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, _ uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.RentExemption, nil
}

// SendTransaction records the raw transaction and returns its first signature.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.RejectSends {
		return "", ErrSendRejected
	}
	// Wire format: compact-u16 signature count, then 64-byte signatures
	if len(rawTx) < 65 || rawTx[0] == 0 {
		return "", fmt.Errorf("malformed transaction: %d bytes", len(rawTx))
	}

	sig := base58.Encode(rawTx[1:65])
	c.Sent = append(c.Sent, rawTx)
	if c.AutoConfirm {
		c.Statuses[sig] = &solana.SignatureStatus{Slot: int64(len(c.Sent)), ConfirmationStatus: solana.CommitmentConfirmed}
	}
	return sig, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.StatusCalls++
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// AddAccount registers an existing account.
func (c *RPCClient) AddAccount(pubkey string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = info
}

// SetStatus sets the status reported for a signature.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// SentCount returns the number of submitted transactions.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}
