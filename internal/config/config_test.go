package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/solana"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, solana.DevnetEndpoint, cfg.RPCEndpoint)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 3*time.Minute, cfg.PipelineTimeout)
	assert.Equal(t, StorePinata, cfg.ContentStore)
	assert.Equal(t, domain.DefaultInstitution, cfg.Institution)
	assert.InDelta(t, 3.0, cfg.UploadRate, 1e-9)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CERTMINT_RPC_ENDPOINT", "http://rpc.test")
	t.Setenv("CERTMINT_PIPELINE_TIMEOUT", "45s")
	t.Setenv("CERTMINT_USE_MEMORY", "true")
	t.Setenv("CERTMINT_CONTENT_STORE", "irys")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://rpc.test", cfg.RPCEndpoint)
	assert.Equal(t, 45*time.Second, cfg.PipelineTimeout)
	assert.True(t, cfg.UseMemory)
	assert.Equal(t, StoreIrys, cfg.ContentStore)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certmint.yaml")
	content := `
rpc_endpoint: http://from-file
institution: Test Institute
confirm_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CERTMINT_INSTITUTION", "Env Institute")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-file", cfg.RPCEndpoint)
	assert.Equal(t, 30*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, "Env Institute", cfg.Institution, "env overrides file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		RPCEndpoint:      solana.DevnetEndpoint,
		Commitment:       "confirmed",
		ConfirmTimeout:   90 * time.Second,
		MintAuthorityKey: "[1,2,3]",
		ContentStore:     StorePinata,
		PinataAPIKey:     "key",
		PinataSecretKey:  "secret",
		UseMemory:        true,
		PipelineTimeout:  3 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing rpc", func(c *Config) { c.RPCEndpoint = "" }, "rpc_endpoint"},
		{"bad commitment", func(c *Config) { c.Commitment = "max" }, "commitment"},
		{"no authority", func(c *Config) { c.MintAuthorityKey = "" }, "mint_authority_key"},
		{"pinata without secret", func(c *Config) { c.PinataSecretKey = "" }, "pinata_secret_key"},
		{"irys without key", func(c *Config) { c.ContentStore = StoreIrys }, "irys_api_key"},
		{"unknown store", func(c *Config) { c.ContentStore = "s3" }, "content_store"},
		{"no persistence", func(c *Config) { c.UseMemory = false }, "postgres_dsn"},
		{"zero timeout", func(c *Config) { c.PipelineTimeout = 0 }, "pipeline_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.RPCEndpoint = ""
	cfg.PinataAPIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc_endpoint")
	assert.Contains(t, err.Error(), "pinata_api_key")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "debug"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "WARN"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "nonsense"}).SlogLevel())
}
