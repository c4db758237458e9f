package mint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"solana-cert-mint/internal/solana"
)

// SolanaLedger implements Ledger on the JSON-RPC client and a confirmer.
type SolanaLedger struct {
	rpc       solana.RPCClient
	confirmer solana.Confirmer
	logger    *slog.Logger
}

// NewSolanaLedger creates a ledger adapter. A nil confirmer polls signature statuses
// at the default commitment.
func NewSolanaLedger(rpc solana.RPCClient, confirmer solana.Confirmer, logger *slog.Logger) *SolanaLedger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if confirmer == nil {
		confirmer = solana.NewPollingConfirmer(rpc, solana.ConfirmConfig{Logger: logger})
	}
	return &SolanaLedger{rpc: rpc, confirmer: confirmer, logger: logger}
}

var _ Ledger = (*SolanaLedger)(nil)

// AccountExists queries getAccountInfo.
func (l *SolanaLedger) AccountExists(ctx context.Context, pk solana.PublicKey) (bool, error) {
	info, err := l.rpc.GetAccountInfo(ctx, pk.String())
	if err != nil {
		return false, fmt.Errorf("get account info %s: %w", pk, err)
	}
	return info != nil, nil
}

// MinimumBalanceForRentExemption queries the rent-exempt minimum.
func (l *SolanaLedger) MinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := l.rpc.GetMinimumBalanceForRentExemption(ctx, size)
	if err != nil {
		return 0, fmt.Errorf("get rent exemption for %d bytes: %w", size, err)
	}
	return lamports, nil
}

// SubmitAndConfirm builds, signs and sends the transaction, then waits for confirmation.
func (l *SolanaLedger) SubmitAndConfirm(ctx context.Context, pending PendingTransaction) (string, error) {
	if len(pending.Signers) == 0 {
		return "", errors.New("transaction has no signers")
	}
	if len(pending.Instructions) == 0 {
		return "", errors.New("transaction has no instructions")
	}

	recent, err := l.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: pending.Signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        pending.Signers[0].PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    pending.Instructions,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	localSig := base58.Encode(tx.Signatures[0])

	sig, err := l.rpc.SendTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	if sig != localSig {
		l.logger.Warn("node returned unexpected signature", "expected", localSig, "got", sig)
	}

	l.logger.Debug("transaction sent", "signature", sig, "instructions", len(pending.Instructions))

	if err := l.confirmer.Confirm(ctx, sig); err != nil {
		return sig, fmt.Errorf("confirm %s: %w", sig, err)
	}
	return sig, nil
}
