// Package app wires configured components into a running issuance pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"solana-cert-mint/internal/config"
	"solana-cert-mint/internal/contentstore"
	"solana-cert-mint/internal/keys"
	"solana-cert-mint/internal/mint"
	"solana-cert-mint/internal/observability"
	"solana-cert-mint/internal/orchestrator"
	"solana-cert-mint/internal/render"
	"solana-cert-mint/internal/solana"
	"solana-cert-mint/internal/storage"
	chstore "solana-cert-mint/internal/storage/clickhouse"
	"solana-cert-mint/internal/storage/memory"
	"solana-cert-mint/internal/storage/migrations"
	pgstore "solana-cert-mint/internal/storage/postgres"
)

// App holds the assembled pipeline and the resources it owns.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Metrics      *observability.Metrics

	closers []func() error
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// stores groups the persistence backends.
type stores struct {
	issuances storage.IssuanceStore
	events    storage.MintEventStore
}

// Build assembles the pipeline described by cfg. reg receives the metrics;
// nil uses the default registerer. The caller must Close the returned App.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &App{Metrics: observability.NewMetrics("", reg)}

	authority, err := keys.Load(ctx, keys.Source{
		JSON:   cfg.MintAuthorityKey,
		File:   cfg.MintAuthorityKeyFile,
		Secret: cfg.MintAuthoritySecret,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("load mint authority: %w", err)
	}

	commitment := cfg.CommitmentLevel()
	rpc := solana.NewHTTPClient(cfg.RPCEndpoint,
		solana.WithCommitment(commitment),
		solana.WithCallObserver(a.Metrics.RecordRPC),
	)

	confirmer, err := a.newConfirmer(ctx, cfg, rpc, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	st, err := a.newStores(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	events := orchestrator.NewEventSink(st.events, logger)

	minter := mint.New(mint.Options{
		Ledger:    mint.NewSolanaLedger(rpc, confirmer, logger),
		Authority: authority,
		Logger:    logger,
		Observers: []mint.StageObserver{a.Metrics, events},
	})

	a.Orchestrator = orchestrator.New(orchestrator.Options{
		Renderer:    render.NewPNGRenderer(render.Options{Institution: cfg.Institution}),
		Store:       newContentStore(cfg, a.Metrics, logger),
		Minter:      minter,
		Issuances:   st.issuances,
		Events:      events,
		Recorder:    a.Metrics,
		Logger:      logger,
		Institution: cfg.Institution,
		Timeout:     cfg.PipelineTimeout,
	})

	logger.Info("pipeline ready",
		"authority", minter.AuthorityAddress(),
		"rpc_endpoint", cfg.RPCEndpoint,
		"content_store", cfg.ContentStore,
		"use_memory", cfg.UseMemory,
	)
	return a, nil
}

// newConfirmer prefers the WebSocket confirmer when a ws endpoint is configured.
func (a *App) newConfirmer(ctx context.Context, cfg *config.Config, rpc solana.RPCClient, logger *slog.Logger) (solana.Confirmer, error) {
	confirmCfg := solana.ConfirmConfig{
		Commitment: cfg.CommitmentLevel(),
		Timeout:    cfg.ConfirmTimeout,
		Logger:     logger,
	}
	if cfg.WSEndpoint == "" {
		return solana.NewPollingConfirmer(rpc, confirmCfg), nil
	}

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Logger = logger
	ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, &wsCfg)
	if err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}
	a.closers = append(a.closers, ws.Close)
	return solana.NewWSConfirmer(ws, rpc, confirmCfg), nil
}

// newStores opens postgres and clickhouse with migrations, or in-memory stores.
func (a *App) newStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stores, error) {
	if cfg.UseMemory {
		logger.Warn("using in-memory storage; issuance records are lost on restart")
		return stores{
			issuances: memory.NewIssuanceStore(),
			events:    memory.NewMintEventStore(),
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return stores{}, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return stores{}, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return stores{}, fmt.Errorf("clickhouse migrations: %w", err)
	}
	a.closers = append(a.closers, chConn.Close)

	return stores{
		issuances: pgstore.NewIssuanceStore(pool),
		events:    chstore.NewMintEventStore(chConn),
	}, nil
}

// newContentStore builds the backend and wraps it: metrics, then rate limit, then cache.
func newContentStore(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) contentstore.Store {
	var store contentstore.Store
	switch cfg.ContentStore {
	case config.StoreIrys:
		store = contentstore.NewIrysStore(contentstore.IrysOptions{
			Endpoint: cfg.IrysEndpoint,
			APIKey:   cfg.IrysAPIKey,
			Logger:   logger,
		})
	default:
		store = contentstore.NewPinataStore(contentstore.PinataOptions{
			Endpoint:  cfg.PinataEndpoint,
			APIKey:    cfg.PinataAPIKey,
			SecretKey: cfg.PinataSecretKey,
			Logger:    logger,
		})
	}

	store = contentstore.NewInstrumentedStore(store, metrics)
	if cfg.UploadRate > 0 {
		store = contentstore.NewRateLimitedStore(store, cfg.UploadRate, 1)
	}
	return contentstore.NewCachingStore(store, cfg.UploadCacheTTL)
}
