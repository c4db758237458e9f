package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-cert-mint/internal/storage"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("op", nil))
	assert.ErrorIs(t, translate("op", pgx.ErrNoRows), storage.ErrNotFound)

	dup := translate("insert", &pgconn.PgError{Code: "23505", ConstraintName: "certificate_issuances_mint_address_key"})
	assert.ErrorIs(t, dup, storage.ErrDuplicateKey)
	assert.Contains(t, dup.Error(), "mint_address_key")

	assert.ErrorIs(t, translate("insert", &pgconn.PgError{Code: "23505"}), storage.ErrDuplicateKey)

	other := translate("insert", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"})
	assert.NotErrorIs(t, other, storage.ErrDuplicateKey)
	assert.Contains(t, other.Error(), "insert: ")

	boom := errors.New("boom")
	assert.ErrorIs(t, translate("query", boom), boom)
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name        string
		dsn         string
		maxConns    int32
		idleTime    time.Duration
		healthCheck time.Duration
	}{
		{
			name:        "nothing set",
			dsn:         "postgres://u:p@localhost:5432/db",
			maxConns:    DefaultMaxConns,
			idleTime:    DefaultMaxConnIdleTime,
			healthCheck: DefaultHealthCheckPeriod,
		},
		{
			name:        "url keys kept",
			dsn:         "postgres://u:p@localhost:5432/db?pool_max_conns=3&pool_health_check_period=2m",
			maxConns:    3,
			idleTime:    DefaultMaxConnIdleTime,
			healthCheck: 2 * time.Minute,
		},
		{
			// 1m is also what pgx picks when the key is absent
			name:        "explicit pgx default kept",
			dsn:         "postgres://u:p@localhost:5432/db?pool_health_check_period=1m",
			maxConns:    DefaultMaxConns,
			idleTime:    DefaultMaxConnIdleTime,
			healthCheck: time.Minute,
		},
		{
			name:        "keyword/value dsn",
			dsn:         "host=localhost port=5432 user=u dbname=db pool_max_conns=5 pool_max_conn_idle_time=30m",
			maxConns:    5,
			idleTime:    30 * time.Minute,
			healthCheck: DefaultHealthCheckPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := pgxpool.ParseConfig(tt.dsn)
			require.NoError(t, err)

			applyDefaults(cfg, tt.dsn)

			assert.Equal(t, tt.maxConns, cfg.MaxConns)
			assert.Equal(t, tt.idleTime, cfg.MaxConnIdleTime)
			assert.Equal(t, tt.healthCheck, cfg.HealthCheckPeriod)
		})
	}
}

func TestDSNKeys(t *testing.T) {
	assert.Equal(t, map[string]bool{"sslmode": true, "pool_max_conns": true},
		dsnKeys("postgresql://u@h/db?sslmode=disable&pool_max_conns=2"))
	assert.Equal(t, map[string]bool{"host": true, "pool_health_check_period": true},
		dsnKeys("host=h pool_health_check_period=1m"))
	assert.Empty(t, dsnKeys("postgres://u@h/db"))
}
