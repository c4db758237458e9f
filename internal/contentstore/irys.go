package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"solana-cert-mint/internal/domain"
)

// IrysOptions configures an IrysStore.
type IrysOptions struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// IrysStore uploads through an Irys uploader service and returns ar:// locators.
type IrysStore struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewIrysStore creates an Irys-backed store.
func NewIrysStore(opts IrysOptions) *IrysStore {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IrysStore{
		endpoint: strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		apiKey:   opts.APIKey,
		client:   client,
		logger:   logger.With("store", "irys"),
	}
}

var _ Store = (*IrysStore)(nil)

// Name returns "irys".
func (s *IrysStore) Name() string { return "irys" }

type irysResponse struct {
	ID string `json:"id"`
}

// Upload posts the raw bytes to {endpoint}/upload.
func (s *IrysStore) Upload(ctx context.Context, data []byte, suggestedName string) (domain.ContentLocator, error) {
	if len(data) == 0 {
		return "", uploadErr(s.Name(), 0, ErrEmptyContent)
	}
	if s.endpoint == "" {
		return "", uploadErr(s.Name(), 0, fmt.Errorf("endpoint not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", uploadErr(s.Name(), 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", ContentType(suggestedName))
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", uploadErr(s.Name(), 0, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("upload rejected", "status", resp.StatusCode, "name", suggestedName)
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))))
	}

	var ir irysResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if ir.ID == "" {
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("response has empty id"))
	}

	loc := domain.NewContentLocator(domain.SchemeArweave, ir.ID)
	s.logger.Info("uploaded", "name", suggestedName, "uri", loc.String(), "size", len(data))
	return loc, nil
}
