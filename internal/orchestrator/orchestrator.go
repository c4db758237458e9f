// Package orchestrator runs the certificate issuance pipeline.
// Flow: validate → render → upload image → build metadata → upload metadata → mint → persist
// Render stops after the image upload; MintExisting starts at mint.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solana-cert-mint/internal/contentstore"
	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/metadata"
	"solana-cert-mint/internal/mint"
	"solana-cert-mint/internal/render"
	"solana-cert-mint/internal/solana"
	"solana-cert-mint/internal/storage"
)

// DefaultTimeout bounds one whole issuance run.
const DefaultTimeout = 3 * time.Minute

// MetadataFileName is the suggested name of the uploaded metadata document.
const MetadataFileName = "metadata.json"

// Minter runs the mint protocol. Implemented by *mint.Orchestrator.
type Minter interface {
	Mint(ctx context.Context, metadataURI domain.ContentLocator, recipientAddress string, fact domain.CertificateFact) (domain.MintResult, error)
	AuthorityAddress() string
}

// Recorder receives run-level metrics. Implemented by *observability.Metrics.
type Recorder interface {
	RecordIssuance(status domain.IssuanceStatus, d time.Duration)
	RecordDBQuery(table, operation string, d time.Duration, err error)
}

// Request is one issuance request. Fact.ID may be empty; a UUID is generated then.
type Request struct {
	Fact             domain.CertificateFact
	RecipientAddress string
}

// MintRequest mints a certificate whose metadata document was uploaded earlier.
type MintRequest struct {
	Fact             domain.CertificateFact
	MetadataURI      domain.ContentLocator
	RecipientAddress string
}

// Options for creating Orchestrator.
type Options struct {
	// Required collaborators
	Renderer render.Renderer
	Store    contentstore.Store
	Minter   Minter

	// Optional persistence and telemetry
	Issuances storage.IssuanceStore
	Events    *EventSink
	Recorder  Recorder
	Logger    *slog.Logger
	Tracer    trace.Tracer

	// Institution printed in the metadata attributes. Defaults to metadata.DefaultInstitution.
	Institution string
	// Timeout bounds the whole run. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Clock and ID source, overridable in tests.
	Now   func() time.Time
	NewID func() string
}

// Orchestrator coordinates issuance runs. Safe for concurrent use; every run
// owns its own state and shares only the injected collaborators.
type Orchestrator struct {
	renderer  render.Renderer
	store     contentstore.Store
	minter    Minter
	builder   *metadata.Builder
	issuances storage.IssuanceStore
	events    *EventSink
	recorder  Recorder
	logger    *slog.Logger
	tracer    trace.Tracer
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		renderer:  opts.Renderer,
		store:     opts.Store,
		minter:    opts.Minter,
		issuances: opts.Issuances,
		events:    opts.Events,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
		timeout:   opts.Timeout,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("solana-cert-mint/internal/orchestrator")
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = func() string { return uuid.NewString() }
	}
	o.builder = metadata.NewBuilder(metadata.Options{
		Institution:    opts.Institution,
		CreatorAddress: opts.Minter.AuthorityAddress(),
	})
	return o
}

// Issue runs the full pipeline for one certificate.
//
// On failure the returned IssuedCertificate still carries whatever was produced
// (locators, partial mint addresses) next to the typed error. Nothing is retried.
func (o *Orchestrator) Issue(ctx context.Context, req Request) (domain.IssuedCertificate, error) {
	fact, err := o.admit(ctx, req.Fact)
	if err != nil {
		return domain.IssuedCertificate{CertificateID: fact.ID}, err
	}
	if _, err := solana.PublicKeyFromBase58(req.RecipientAddress); err != nil {
		return domain.IssuedCertificate{CertificateID: fact.ID},
			domain.NewValidationError("recipient", "invalid wallet address")
	}

	return o.run(ctx, "orchestrator.Issue", fact, req.RecipientAddress, func(ctx context.Context, r *issuance) error {
		if err := r.renderImage(ctx); err != nil {
			return err
		}
		if err := r.publishMetadata(ctx); err != nil {
			return err
		}
		return r.mint(ctx)
	})
}

// MintExisting mints against an already uploaded metadata document. The fact
// is still required: it names the token and keys the issuance record.
func (o *Orchestrator) MintExisting(ctx context.Context, req MintRequest) (domain.IssuedCertificate, error) {
	fact, err := o.admit(ctx, req.Fact)
	if err != nil {
		return domain.IssuedCertificate{CertificateID: fact.ID}, err
	}
	if _, err := mint.Validate(req.MetadataURI, req.RecipientAddress, fact); err != nil {
		return domain.IssuedCertificate{CertificateID: fact.ID}, err
	}

	return o.run(ctx, "orchestrator.MintExisting", fact, req.RecipientAddress, func(ctx context.Context, r *issuance) error {
		r.cert.MetadataURI = req.MetadataURI
		return r.mint(ctx)
	})
}

// Render renders the certificate and uploads its image without minting.
// No issuance record is stored, so the returned ID stays free for a later
// Issue or MintExisting. Step events are recorded as in any run.
func (o *Orchestrator) Render(ctx context.Context, fact domain.CertificateFact) (domain.IssuedCertificate, error) {
	fact, err := o.admit(ctx, fact)
	if err != nil {
		return domain.IssuedCertificate{CertificateID: fact.ID}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	ctx, span := o.tracer.Start(ctx, "orchestrator.Render", trace.WithAttributes(
		attribute.String("certificate_id", fact.ID),
	))
	defer span.End()

	r := o.newRun(fact, "")
	if err := r.renderImage(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("render failed", slog.Any("error", err))
		return r.cert, err
	}
	r.logger.Info("certificate rendered", slog.String("uri", r.cert.ImageURI.String()))
	return r.cert, nil
}

// admit assigns a certificate ID when the caller gave none, validates the fact
// and rejects IDs that already have an issuance record. It runs before any
// render, upload or ledger call.
func (o *Orchestrator) admit(ctx context.Context, fact domain.CertificateFact) (domain.CertificateFact, error) {
	supplied := fact.ID != ""
	if !supplied {
		fact.ID = o.newID()
	}
	if err := metadata.ValidateFact(fact); err != nil {
		return fact, err
	}
	if supplied {
		if err := o.ensureUnused(ctx, fact.ID); err != nil {
			return fact, err
		}
	}
	return fact, nil
}

// ensureUnused fails when certificateID is already recorded. Two concurrent
// requests for the same new ID can both pass; the record insert then keeps
// the first.
func (o *Orchestrator) ensureUnused(ctx context.Context, certificateID string) error {
	if o.issuances == nil {
		return nil
	}

	start := o.now()
	_, err := o.issuances.GetByCertificateID(ctx, certificateID)
	if o.recorder != nil {
		var queryErr error
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			queryErr = err
		}
		o.recorder.RecordDBQuery("certificate_issuances", "select", o.now().Sub(start), queryErr)
	}

	switch {
	case err == nil:
		return domain.NewValidationError("certificate_id", "certificate already issued")
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check certificate id: %w", err)
	}
}

// run executes steps for one issuance under the pipeline timeout, then
// persists and reports the outcome.
func (o *Orchestrator) run(ctx context.Context, spanName string, fact domain.CertificateFact, recipient string, steps func(context.Context, *issuance) error) (domain.IssuedCertificate, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("certificate_id", fact.ID),
	))
	defer span.End()

	r := o.newRun(fact, recipient)
	err := steps(ctx, r)
	status := issuanceStatus(err)
	r.persist(ctx, status, err)

	if o.recorder != nil {
		o.recorder.RecordIssuance(status, o.now().Sub(r.started))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("issuance failed", slog.String("status", string(status)), slog.Any("error", err))
		return r.cert, err
	}

	r.logger.Info("certificate issued",
		slog.String("mint", r.cert.Mint.MintAddress),
		slog.String("uri", r.cert.MetadataURI.String()),
		slog.Int64("duration_ms", o.now().Sub(r.started).Milliseconds()),
	)
	return r.cert, nil
}

func (o *Orchestrator) newRun(fact domain.CertificateFact, recipient string) *issuance {
	r := &issuance{
		o:         o,
		fact:      fact,
		recipient: recipient,
		started:   o.now(),
		logger:    o.logger.With(slog.String("certificate_id", fact.ID)),
	}
	r.cert.CertificateID = fact.ID
	return r
}

// Lookup returns the stored record of an issuance. Returns storage.ErrNotFound
// when no record exists or persistence is not configured.
func (o *Orchestrator) Lookup(ctx context.Context, certificateID string) (*domain.IssuanceRecord, error) {
	if o.issuances == nil {
		return nil, storage.ErrNotFound
	}
	return o.issuances.GetByCertificateID(ctx, certificateID)
}

// issuance holds the state of one run.
type issuance struct {
	o         *Orchestrator
	fact      domain.CertificateFact
	recipient string
	started   time.Time
	logger    *slog.Logger
	cert      domain.IssuedCertificate
	failed    string // off-chain step that failed
}

func (r *issuance) renderImage(ctx context.Context) error {
	var image []byte
	if err := r.step(ctx, StepRender, func(ctx context.Context) (string, error) {
		var err error
		image, err = r.o.renderer.Render(ctx, r.fact)
		return "", err
	}); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}

	if err := r.step(ctx, StepUploadImage, func(ctx context.Context) (string, error) {
		loc, err := r.o.store.Upload(ctx, image, fmt.Sprintf("certificate_%s.png", r.fact.ID))
		r.cert.ImageURI = loc
		return loc.String(), err
	}); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	return nil
}

func (r *issuance) publishMetadata(ctx context.Context) error {
	record, err := r.o.builder.Build(r.fact, r.cert.ImageURI)
	if err != nil {
		r.failed = "build_metadata"
		return fmt.Errorf("build metadata: %w", err)
	}
	doc, err := metadata.Marshal(record)
	if err != nil {
		r.failed = "build_metadata"
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := r.step(ctx, StepUploadMetadata, func(ctx context.Context) (string, error) {
		loc, err := r.o.store.Upload(ctx, doc, MetadataFileName)
		r.cert.MetadataURI = loc
		return loc.String(), err
	}); err != nil {
		return fmt.Errorf("upload metadata: %w", err)
	}
	return nil
}

// mint runs the mint protocol. Its stages are recorded by the mint
// orchestrator's observers.
func (r *issuance) mint(ctx context.Context) error {
	result, err := r.o.minter.Mint(ctx, r.cert.MetadataURI, r.recipient, r.fact)
	if err != nil {
		var mintErr *domain.MintError
		if errors.As(err, &mintErr) {
			partial := mintErr.Partial
			r.cert.Mint = &partial
		}
		return err
	}
	r.cert.Mint = &result
	return nil
}

// step runs one off-chain pipeline step inside a span and records its outcome.
// fn returns the address (locator) the step produced, if any.
func (r *issuance) step(ctx context.Context, name string, fn func(context.Context) (string, error)) error {
	if err := ctx.Err(); err != nil {
		r.failed = name
		return err
	}

	ctx, span := r.o.tracer.Start(ctx, "orchestrator."+name)
	defer span.End()

	start := r.o.now()
	address, err := fn(ctx)
	elapsed := r.o.now().Sub(start)

	r.o.events.Record(ctx, r.fact.ID, name, "", address, elapsed, err)

	if err != nil {
		r.failed = name
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("pipeline step failed", slog.String("stage", name), slog.Any("error", err))
		return err
	}

	r.logger.Debug("pipeline step done",
		slog.String("stage", name),
		slog.String("uri", address),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return nil
}

// persist writes the issuance record. The ledger is the source of truth for a
// minted certificate, so a storage failure is logged and does not fail the run.
func (r *issuance) persist(ctx context.Context, status domain.IssuanceStatus, runErr error) {
	if r.o.issuances == nil {
		return
	}

	rec := &domain.IssuanceRecord{
		CertificateID:    r.fact.ID,
		RecipientAddress: r.recipient,
		ImageURI:         r.cert.ImageURI.String(),
		MetadataURI:      r.cert.MetadataURI.String(),
		Status:           status,
		CreatedAt:        r.started.UnixMilli(),
	}
	if m := r.cert.Mint; m != nil {
		rec.MintAddress = m.MintAddress
		rec.TokenAccount = m.TokenAccount
		rec.MetadataAccount = m.MetadataAccount
		rec.CreateMintSignature = m.CreateMintSignature
		rec.MintSignature = m.MintSignature
		rec.MetadataSignature = m.MetadataSignature
	}
	if runErr != nil {
		rec.FailedStage = r.failed
		if rec.FailedStage == "" {
			rec.FailedStage = failedStage(runErr)
		}
		rec.Error = runErr.Error()
	}

	start := r.o.now()
	err := r.o.issuances.Insert(context.WithoutCancel(ctx), rec)
	if r.o.recorder != nil {
		r.o.recorder.RecordDBQuery("certificate_issuances", "insert", r.o.now().Sub(start), err)
	}
	if err != nil {
		r.logger.Error("failed to persist issuance record", slog.Any("error", err))
	}
}

// issuanceStatus maps a run error to the terminal status.
func issuanceStatus(err error) domain.IssuanceStatus {
	if err == nil {
		return domain.IssuanceMinted
	}
	var mintErr *domain.MintError
	if !errors.As(err, &mintErr) {
		return domain.IssuanceFailed
	}
	switch {
	case mintErr.Stage == domain.StageMetadata:
		return domain.IssuanceMetadataFailed
	case mintErr.Committed():
		return domain.IssuanceMintFailed
	default:
		return domain.IssuanceFailed
	}
}

// failedStage names the stage a run error came from.
func failedStage(err error) string {
	var mintErr *domain.MintError
	if errors.As(err, &mintErr) {
		return string(mintErr.Stage)
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return "validation"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	return "pipeline"
}
