package solana

import "context"

// RPCClient defines the Solana JSON-RPC methods the mint protocol needs.
type RPCClient interface {
	// GetAccountInfo retrieves account info. Returns nil, nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction construction.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// GetMinimumBalanceForRentExemption returns lamports needed for an account of dataSize bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)

	// SendTransaction submits a signed, serialized transaction and returns its signature.
	// Never retried by the client.
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)

	// GetSignatureStatuses returns one status per signature; nil entries are unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}
