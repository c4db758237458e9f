// Package mint runs the certificate token mint protocol against a ledger.
//
// A run commits three transactions in order:
//  1. account_creation: create and initialize a fresh 0-decimal mint account
//  2. mint: create the recipient's associated token account if absent, mint 1 unit
//  3. metadata: create the immutable metadata account pointing at the metadata URI
//
// A failure stops the run; nothing is retried. Rerunning the whole pipeline
// creates a second, distinct mint account.
package mint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/metadata"
	"solana-cert-mint/internal/metaplex"
	"solana-cert-mint/internal/solana"
)

// InvalidMetadataURI is the reason reported for non content-addressed metadata locators.
const InvalidMetadataURI = "Invalid metadata URI"

// StageEvent describes the outcome of one mint stage.
type StageEvent struct {
	CertificateID string
	Stage         domain.Stage
	MintAddress   string
	Signature     string
	Duration      time.Duration
	Err           error
}

// StageObserver is notified after every attempted stage.
type StageObserver interface {
	ObserveStage(ctx context.Context, ev StageEvent)
}

// Options configures an Orchestrator.
type Options struct {
	Ledger    Ledger
	Authority types.Account // mint authority, fee payer, update authority and creator
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Observers []StageObserver

	// NewMintAccount generates the mint keypair. Defaults to types.NewAccount.
	NewMintAccount func() types.Account
}

// Orchestrator sequences the mint protocol. It holds no per-run state and is
// safe for concurrent runs sharing the same authority and ledger.
type Orchestrator struct {
	ledger         Ledger
	authority      types.Account
	logger         *slog.Logger
	tracer         trace.Tracer
	observers      []StageObserver
	newMintAccount func() types.Account
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("solana-cert-mint/internal/mint")
	}
	newMint := opts.NewMintAccount
	if newMint == nil {
		newMint = types.NewAccount
	}
	return &Orchestrator{
		ledger:         opts.Ledger,
		authority:      opts.Authority,
		logger:         logger,
		tracer:         tracer,
		observers:      opts.Observers,
		newMintAccount: newMint,
	}
}

// AuthorityAddress returns the base58 minting authority.
func (o *Orchestrator) AuthorityAddress() string {
	return o.authority.PublicKey.ToBase58()
}

// DeriveKeys derives the token and metadata accounts for a mint and recipient.
// Pure; no network calls.
func DeriveKeys(mint, recipient solana.PublicKey) (domain.MintKeys, error) {
	ata, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return domain.MintKeys{}, err
	}
	meta, err := solana.FindMetadataAddress(mint)
	if err != nil {
		return domain.MintKeys{}, err
	}
	return domain.MintKeys{
		Mint:            mint.String(),
		TokenAccount:    ata.String(),
		MetadataAccount: meta.String(),
	}, nil
}

// Validate checks every precondition of Mint. It makes no network calls.
func Validate(metadataURI domain.ContentLocator, recipientAddress string, fact domain.CertificateFact) (solana.PublicKey, error) {
	if !metadataURI.IsContentAddressed() {
		return solana.PublicKey{}, domain.NewValidationError("metadata_uri", InvalidMetadataURI)
	}
	recipient, err := solana.PublicKeyFromBase58(recipientAddress)
	if err != nil {
		return solana.PublicKey{}, domain.NewValidationError("recipient", "invalid wallet address")
	}
	if err := metadata.ValidateFact(fact); err != nil {
		return solana.PublicKey{}, err
	}

	if err := metaplex.ValidateFields(domain.PrefixedName(fact.Name), domain.CertificateSymbol, metadataURI.String()); err != nil {
		var encErr *domain.EncodingError
		if errors.As(err, &encErr) {
			return solana.PublicKey{}, domain.NewValidationError(encErr.Field, encErr.Reason)
		}
		return solana.PublicKey{}, err
	}
	return recipient, nil
}

// Mint runs the protocol and returns the result, or a *domain.MintError whose
// Partial carries everything committed before the failing stage.
func (o *Orchestrator) Mint(ctx context.Context, metadataURI domain.ContentLocator, recipientAddress string, fact domain.CertificateFact) (domain.MintResult, error) {
	recipient, err := Validate(metadataURI, recipientAddress, fact)
	if err != nil {
		return domain.MintResult{}, err
	}

	ctx, span := o.tracer.Start(ctx, "mint.Mint", trace.WithAttributes(
		attribute.String("certificate_id", fact.ID),
		attribute.String("metadata_uri", metadataURI.String()),
	))
	defer span.End()

	run := &mintRun{
		o:         o,
		fact:      fact,
		recipient: recipient,
		uri:       metadataURI,
		mint:      o.newMintAccount(),
	}

	result, err := run.execute(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.MintResult{}, err
	}

	span.SetAttributes(attribute.String("mint", result.MintAddress))
	return result, nil
}

// mintRun holds the state of one protocol run.
type mintRun struct {
	o         *Orchestrator
	fact      domain.CertificateFact
	recipient solana.PublicKey
	uri       domain.ContentLocator
	mint      types.Account
	result    domain.MintResult
}

func (r *mintRun) execute(ctx context.Context) (domain.MintResult, error) {
	mintKey := solana.PublicKey(r.mint.PublicKey)
	keys, err := DeriveKeys(mintKey, r.recipient)
	if err != nil {
		return domain.MintResult{}, &domain.MintError{Stage: domain.StageAccountCreation, Err: err}
	}
	r.result.MintAddress = keys.Mint
	r.result.TokenAccount = keys.TokenAccount
	r.result.MetadataAccount = keys.MetadataAccount

	logger := r.o.logger.With("certificate_id", r.fact.ID, "mint", keys.Mint)
	logger.Info("mint started", "recipient", r.recipient.String(), "uri", r.uri.String())

	// Stage 1: mint account
	sig, err := r.stage(ctx, domain.StageAccountCreation, r.createMint)
	if err != nil {
		return domain.MintResult{}, r.fail(domain.StageAccountCreation, sig, err)
	}
	r.result.CreateMintSignature = sig

	// Stage 2: associated account + mint 1 unit
	sig, err = r.stage(ctx, domain.StageMint, func(ctx context.Context) (string, error) {
		return r.mintToken(ctx, keys)
	})
	if err != nil {
		return domain.MintResult{}, r.fail(domain.StageMint, sig, err)
	}
	r.result.MintSignature = sig

	// Stage 3: metadata account
	sig, err = r.stage(ctx, domain.StageMetadata, func(ctx context.Context) (string, error) {
		return r.createMetadata(ctx, keys)
	})
	if err != nil {
		logger.Error("metadata stage failed; token minted without metadata", "error", err)
		return domain.MintResult{}, r.fail(domain.StageMetadata, sig, err)
	}
	r.result.MetadataSignature = sig
	r.result.Success = true

	logger.Info("mint completed",
		"mint_signature", r.result.MintSignature,
		"metadata_signature", r.result.MetadataSignature)
	return r.result, nil
}

// stage runs fn under a span, stops early on cancellation and notifies observers.
func (r *mintRun) stage(ctx context.Context, stage domain.Stage, fn func(context.Context) (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, span := r.o.tracer.Start(ctx, "mint."+string(stage))
	defer span.End()

	start := time.Now()
	sig, err := fn(ctx)
	elapsed := time.Since(start)

	if sig != "" {
		span.SetAttributes(attribute.String("signature", sig))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	ev := StageEvent{
		CertificateID: r.fact.ID,
		Stage:         stage,
		MintAddress:   r.result.MintAddress,
		Signature:     sig,
		Duration:      elapsed,
		Err:           err,
	}
	for _, obs := range r.o.observers {
		obs.ObserveStage(ctx, ev)
	}

	r.o.logger.Debug("stage finished",
		"certificate_id", r.fact.ID,
		"stage", string(stage),
		"signature", sig,
		"duration_ms", elapsed.Milliseconds(),
		"error", err)
	return sig, err
}

// fail wraps err with the stage and the partial result. A signature returned
// alongside the error is kept: the transaction was submitted and may have landed.
func (r *mintRun) fail(stage domain.Stage, sig string, err error) error {
	partial := r.result
	switch stage {
	case domain.StageAccountCreation:
		partial.CreateMintSignature = sig
	case domain.StageMint:
		partial.MintSignature = sig
	case domain.StageMetadata:
		partial.MetadataSignature = sig
	}
	partial.Success = false
	return &domain.MintError{Stage: stage, Partial: partial, Err: err}
}

func (r *mintRun) createMint(ctx context.Context) (string, error) {
	lamports, err := r.o.ledger.MinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return "", err
	}

	authority := r.o.authority.PublicKey
	return r.o.ledger.SubmitAndConfirm(ctx, PendingTransaction{
		Signers: []types.Account{r.o.authority, r.mint},
		Instructions: []types.Instruction{
			system.CreateAccount(system.CreateAccountParam{
				From:     authority,
				New:      r.mint.PublicKey,
				Owner:    common.TokenProgramID,
				Lamports: lamports,
				Space:    token.MintAccountSize,
			}),
			token.InitializeMint(token.InitializeMintParam{
				Decimals:   0,
				Mint:       r.mint.PublicKey,
				MintAuth:   authority,
				FreezeAuth: &authority,
			}),
		},
	})
}

func (r *mintRun) mintToken(ctx context.Context, keys domain.MintKeys) (string, error) {
	ata, err := solana.PublicKeyFromBase58(keys.TokenAccount)
	if err != nil {
		return "", err
	}

	exists, err := r.o.ledger.AccountExists(ctx, ata)
	if err != nil {
		return "", err
	}

	instructions := TokenInstructions(r.o.authority.PublicKey, common.PublicKey(r.recipient), r.mint.PublicKey, common.PublicKey(ata), exists)
	return r.o.ledger.SubmitAndConfirm(ctx, PendingTransaction{
		Signers:      []types.Account{r.o.authority},
		Instructions: instructions,
	})
}

// TokenInstructions builds the mint-stage instructions: an associated account
// creation unless ataExists, then MintTo of exactly one unit.
func TokenInstructions(authority, owner, mint, ata common.PublicKey, ataExists bool) []types.Instruction {
	instructions := make([]types.Instruction, 0, 2)
	if !ataExists {
		instructions = append(instructions, associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 authority,
				Owner:                  owner,
				Mint:                   mint,
				AssociatedTokenAccount: ata,
			},
		))
	}
	return append(instructions, token.MintTo(token.MintToParam{
		Mint:   mint,
		To:     ata,
		Auth:   authority,
		Amount: 1,
	}))
}

func (r *mintRun) createMetadata(ctx context.Context, keys domain.MintKeys) (string, error) {
	metaKey, err := solana.PublicKeyFromBase58(keys.MetadataAccount)
	if err != nil {
		return "", err
	}
	authority := solana.PublicKey(r.o.authority.PublicKey)

	data, err := metaplex.EncodeCreateMetadataV3(domain.PrefixedName(r.fact.Name), domain.CertificateSymbol, r.uri.String(), authority)
	if err != nil {
		// Unreachable after Validate
		return "", fmt.Errorf("encode metadata instruction: %w", err)
	}

	ix := metaplex.CreateMetadataAccountV3(metaplex.CreateMetadataAccounts{
		Metadata:        metaKey,
		Mint:            solana.PublicKey(r.mint.PublicKey),
		MintAuthority:   authority,
		Payer:           authority,
		UpdateAuthority: authority,
	}, data)

	return r.o.ledger.SubmitAndConfirm(ctx, PendingTransaction{
		Signers:      []types.Account{r.o.authority},
		Instructions: []types.Instruction{ix},
	})
}
