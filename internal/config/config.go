// Package config loads runtime configuration from defaults, an optional file,
// CERTMINT_* environment variables and bound CLI flags (highest priority last).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/solana"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CERTMINT"

// Content store backends.
const (
	StorePinata = "pinata"
	StoreIrys   = "irys"
)

// Config holds all runtime settings.
type Config struct {
	// Ledger
	RPCEndpoint    string        `mapstructure:"rpc_endpoint"`
	WSEndpoint     string        `mapstructure:"ws_endpoint"`
	Commitment     string        `mapstructure:"commitment"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`

	// Mint authority key sources, first non-empty wins
	MintAuthorityKey     string `mapstructure:"mint_authority_key"`
	MintAuthorityKeyFile string `mapstructure:"mint_authority_key_file"`
	MintAuthoritySecret  string `mapstructure:"mint_authority_secret"`

	// Content store
	ContentStore    string        `mapstructure:"content_store"`
	PinataEndpoint  string        `mapstructure:"pinata_endpoint"`
	PinataAPIKey    string        `mapstructure:"pinata_api_key"`
	PinataSecretKey string        `mapstructure:"pinata_secret_key"`
	IrysEndpoint    string        `mapstructure:"irys_endpoint"`
	IrysAPIKey      string        `mapstructure:"irys_api_key"`
	UploadRate      float64       `mapstructure:"upload_rate"`
	UploadCacheTTL  time.Duration `mapstructure:"upload_cache_ttl"`

	// Persistence
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
	UseMemory     bool   `mapstructure:"use_memory"`

	// Pipeline
	PipelineTimeout time.Duration `mapstructure:"pipeline_timeout"`
	Institution     string        `mapstructure:"institution"`

	// Server
	HTTPAddr string `mapstructure:"http_addr"`
	LogLevel string `mapstructure:"log_level"`
}

// defaults lists every key; viper only resolves env vars for keys it knows about.
var defaults = map[string]any{
	"rpc_endpoint":            solana.DevnetEndpoint,
	"ws_endpoint":             "",
	"commitment":              string(solana.CommitmentConfirmed),
	"confirm_timeout":         "90s",
	"mint_authority_key":      "",
	"mint_authority_key_file": "",
	"mint_authority_secret":   "",
	"content_store":           StorePinata,
	"pinata_endpoint":         "https://api.pinata.cloud",
	"pinata_api_key":          "",
	"pinata_secret_key":       "",
	"irys_endpoint":           "https://uploader.irys.xyz",
	"irys_api_key":            "",
	"upload_rate":             3.0,
	"upload_cache_ttl":        "1h",
	"postgres_dsn":            "",
	"clickhouse_dsn":          "",
	"use_memory":              false,
	"pipeline_timeout":        "3m",
	"institution":             domain.DefaultInstitution,
	"http_addr":               ":8080",
	"log_level":               "info",
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (if non-empty) into v and decodes the result.
// The file format follows the extension (yaml, json, toml, env).
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.RPCEndpoint == "" {
		errs = append(errs, errors.New("rpc_endpoint is required"))
	}
	if _, err := solana.ParseCommitment(c.Commitment); err != nil {
		errs = append(errs, err)
	}
	if c.MintAuthorityKey == "" && c.MintAuthorityKeyFile == "" && c.MintAuthoritySecret == "" {
		errs = append(errs, errors.New("one of mint_authority_key, mint_authority_key_file, mint_authority_secret is required"))
	}

	switch c.ContentStore {
	case StorePinata:
		if c.PinataAPIKey == "" || c.PinataSecretKey == "" {
			errs = append(errs, errors.New("pinata_api_key and pinata_secret_key are required for the pinata store"))
		}
	case StoreIrys:
		if c.IrysAPIKey == "" {
			errs = append(errs, errors.New("irys_api_key is required for the irys store"))
		}
	default:
		errs = append(errs, fmt.Errorf("content_store must be %q or %q, got %q", StorePinata, StoreIrys, c.ContentStore))
	}

	if !c.UseMemory && (c.PostgresDSN == "" || c.ClickhouseDSN == "") {
		errs = append(errs, errors.New("postgres_dsn and clickhouse_dsn are required (set use_memory for in-memory storage)"))
	}
	if c.PipelineTimeout <= 0 {
		errs = append(errs, errors.New("pipeline_timeout must be positive"))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("confirm_timeout must be positive"))
	}
	if c.UploadRate < 0 {
		errs = append(errs, errors.New("upload_rate must not be negative"))
	}

	return errors.Join(errs...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// CommitmentLevel returns the parsed commitment. Call Validate first.
func (c *Config) CommitmentLevel() solana.Commitment {
	commitment, err := solana.ParseCommitment(c.Commitment)
	if err != nil {
		return solana.CommitmentConfirmed
	}
	return commitment
}
