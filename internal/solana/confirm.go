package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default confirmation settings.
const (
	DefaultConfirmTimeout = 90 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// ErrConfirmTimeout is returned when a signature does not reach the target commitment in time.
var ErrConfirmTimeout = errors.New("transaction confirmation timed out")

// TransactionFailedError reports a transaction that landed with an on-chain error.
type TransactionFailedError struct {
	Signature string
	Err       any
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}

// Confirmer waits until a submitted signature reaches a commitment level.
type Confirmer interface {
	Confirm(ctx context.Context, signature string) error
}

// ConfirmConfig configures confirmers.
type ConfirmConfig struct {
	Commitment   Commitment
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

func (c ConfirmConfig) withDefaults() ConfirmConfig {
	if c.Commitment == "" {
		c.Commitment = CommitmentConfirmed
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultConfirmTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// PollingConfirmer confirms signatures via getSignatureStatuses.
type PollingConfirmer struct {
	rpc    RPCClient
	config ConfirmConfig
}

// NewPollingConfirmer creates a polling confirmer.
func NewPollingConfirmer(rpc RPCClient, config ConfirmConfig) *PollingConfirmer {
	return &PollingConfirmer{rpc: rpc, config: config.withDefaults()}
}

var _ Confirmer = (*PollingConfirmer)(nil)

// Confirm polls until the signature reaches the configured commitment,
// fails on-chain, or the timeout elapses.
func (p *PollingConfirmer) Confirm(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		done, err := p.check(ctx, signature)
		if done {
			return err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", ErrConfirmTimeout, signature)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// check queries the status once. done is true when polling should stop.
func (p *PollingConfirmer) check(ctx context.Context, signature string) (done bool, err error) {
	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		// Transient read failures keep polling until the deadline
		p.config.Logger.Debug("signature status query failed", "signature", signature, "error", err)
		return false, nil
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}

	status := statuses[0]
	if status.Failed() {
		return true, &TransactionFailedError{Signature: signature, Err: status.Err}
	}

	observed := status.ConfirmationStatus
	if observed == "" && status.Confirmations == nil {
		// Rooted
		observed = CommitmentFinalized
	}
	if p.config.Commitment.Reached(observed) {
		return true, nil
	}
	return false, nil
}

// WSConfirmer confirms signatures via signatureSubscribe, falling back to polling
// when the subscription cannot be established or is dropped.
type WSConfirmer struct {
	ws       WSClient
	fallback *PollingConfirmer
	config   ConfirmConfig
}

// NewWSConfirmer creates a subscription-based confirmer.
func NewWSConfirmer(ws WSClient, rpc RPCClient, config ConfirmConfig) *WSConfirmer {
	config = config.withDefaults()
	return &WSConfirmer{
		ws:       ws,
		fallback: NewPollingConfirmer(rpc, config),
		config:   config,
	}
}

var _ Confirmer = (*WSConfirmer)(nil)

// Confirm waits for the signature notification.
func (w *WSConfirmer) Confirm(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	ch, unsubscribe, err := w.ws.SubscribeSignature(ctx, signature, w.config.Commitment)
	if err != nil {
		w.config.Logger.Warn("signature subscription failed, polling instead", "signature", signature, "error", err)
		return w.fallback.Confirm(ctx, signature)
	}
	defer unsubscribe()

	// The transaction may have landed before the subscription was registered
	if done, err := w.fallback.check(ctx, signature); done {
		return err
	}

	select {
	case n, ok := <-ch:
		if !ok {
			w.config.Logger.Warn("signature subscription closed, polling instead", "signature", signature)
			return w.fallback.Confirm(ctx, signature)
		}
		if n.Err != nil {
			return &TransactionFailedError{Signature: signature, Err: n.Err}
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrConfirmTimeout, signature)
		}
		return ctx.Err()
	}
}
