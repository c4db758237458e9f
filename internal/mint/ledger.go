package mint

import (
	"context"

	"github.com/blocto/solana-go-sdk/types"

	"solana-cert-mint/internal/solana"
)

// PendingTransaction is a set of instructions committed atomically.
// Signers[0] pays the fee.
type PendingTransaction struct {
	Instructions []types.Instruction
	Signers      []types.Account
}

// Ledger is the remote ledger as seen by the orchestrator.
type Ledger interface {
	// AccountExists reports whether an account is initialized at pk.
	AccountExists(ctx context.Context, pk solana.PublicKey) (bool, error)

	// MinimumBalanceForRentExemption returns lamports for an account of size bytes.
	MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// SubmitAndConfirm signs, sends once and waits for confirmation.
	// A non-empty signature with an error means the transaction was submitted but
	// its outcome is unknown or failed.
	SubmitAndConfirm(ctx context.Context, tx PendingTransaction) (string, error)
}
