package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface used for confirmation.
type WSClient interface {
	// SubscribeSignature subscribes to the confirmation of a single transaction signature.
	// The returned channel yields at most one notification and is then closed.
	// The returned func releases the subscription; callers defer it.
	SubscribeSignature(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, func(), error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureSubscribe message.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       any
}
