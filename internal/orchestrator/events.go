package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/idhash"
	"solana-cert-mint/internal/mint"
	"solana-cert-mint/internal/storage"
)

// Pipeline steps recorded alongside the mint stages.
const (
	StepRender         = "render"
	StepUploadImage    = "upload_image"
	StepUploadMetadata = "upload_metadata"
)

// EventSink turns step outcomes into MintEvent rows.
// It is registered as a mint.StageObserver so mint stages land in the same table.
type EventSink struct {
	store  storage.MintEventStore
	logger *slog.Logger
	now    func() time.Time
}

// NewEventSink creates an EventSink writing to store. A nil store drops events.
func NewEventSink(store storage.MintEventStore, logger *slog.Logger) *EventSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EventSink{store: store, logger: logger, now: time.Now}
}

var _ mint.StageObserver = (*EventSink)(nil)

// ObserveStage records a mint stage.
func (s *EventSink) ObserveStage(ctx context.Context, ev mint.StageEvent) {
	s.Record(ctx, ev.CertificateID, string(ev.Stage), ev.Signature, ev.MintAddress, ev.Duration, ev.Err)
}

// Record stores one step outcome. Failures to persist are logged, never returned:
// the event table is an audit trail, not part of the issuance result.
func (s *EventSink) Record(ctx context.Context, certificateID, step, signature, address string, d time.Duration, err error) {
	if s == nil || s.store == nil {
		return
	}

	ev := &domain.MintEvent{
		CertificateID: certificateID,
		Stage:         step,
		Status:        domain.MintEventOK,
		Signature:     signature,
		Address:       address,
		DurationMs:    d.Milliseconds(),
		Timestamp:     s.now().UnixMilli(),
	}
	if err != nil {
		ev.Status = domain.MintEventFailed
		ev.Error = err.Error()
	}
	ev.EventID = idhash.ComputeMintEventID(ev.CertificateID, ev.Stage, string(ev.Status), ev.Signature, ev.Timestamp)

	// Recorded even when the run's context has expired.
	if insertErr := s.store.InsertBulk(context.WithoutCancel(ctx), []*domain.MintEvent{ev}); insertErr != nil {
		s.logger.Warn("failed to record mint event",
			slog.String("certificate_id", certificateID),
			slog.String("stage", step),
			slog.Any("error", insertErr),
		)
	}
}
