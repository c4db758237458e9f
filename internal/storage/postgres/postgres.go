// Package postgres stores issuance records in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"solana-cert-mint/internal/storage"
)

// Pool defaults applied when the DSN does not set them.
const (
	DefaultMaxConns          = 8
	DefaultMaxConnIdleTime   = 5 * time.Minute
	DefaultHealthCheckPeriod = 30 * time.Second
	pingTimeout              = 5 * time.Second
)

// Pool is a pgx pool shared by the stores of this package.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and checks the server answers before returning.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	applyDefaults(cfg, dsn)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres %s: %w", cfg.ConnConfig.Host, err)
	}
	return &Pool{Pool: pool}, nil
}

// applyDefaults sets the pool settings dsn leaves out. A pool_* key present
// in the DSN wins even when its value equals pgx's own default.
func applyDefaults(cfg *pgxpool.Config, dsn string) {
	keys := dsnKeys(dsn)
	if !keys["pool_max_conns"] {
		cfg.MaxConns = DefaultMaxConns
	}
	if !keys["pool_max_conn_idle_time"] {
		cfg.MaxConnIdleTime = DefaultMaxConnIdleTime
	}
	if !keys["pool_health_check_period"] {
		cfg.HealthCheckPeriod = DefaultHealthCheckPeriod
	}
}

// dsnKeys lists the parameter names of a URL or keyword/value DSN.
func dsnKeys(dsn string) map[string]bool {
	keys := make(map[string]bool)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return keys
		}
		for k := range u.Query() {
			keys[k] = true
		}
		return keys
	}
	for _, field := range strings.Fields(dsn) {
		if k, _, ok := strings.Cut(field, "="); ok {
			keys[k] = true
		}
	}
	return keys
}

const codeUniqueViolation = "23505"

// translate maps driver errors onto the storage sentinels and wraps the rest with op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		if pgErr.ConstraintName != "" {
			return fmt.Errorf("%w (%s)", storage.ErrDuplicateKey, pgErr.ConstraintName)
		}
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("%s: %w", op, err)
}
