package contentstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"solana-cert-mint/internal/domain"
)

// DefaultPinataEndpoint is the Pinata API base URL.
const DefaultPinataEndpoint = "https://api.pinata.cloud"

// PinataOptions configures a PinataStore.
type PinataOptions struct {
	Endpoint   string
	APIKey     string
	SecretKey  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// PinataStore pins files to IPFS via Pinata and returns ipfs:// locators.
type PinataStore struct {
	endpoint  string
	apiKey    string
	secretKey string
	client    *http.Client
	logger    *slog.Logger
}

// NewPinataStore creates a Pinata-backed store.
func NewPinataStore(opts PinataOptions) *PinataStore {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultPinataEndpoint
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PinataStore{
		endpoint:  endpoint,
		apiKey:    opts.APIKey,
		secretKey: opts.SecretKey,
		client:    client,
		logger:    logger.With("store", "pinata"),
	}
}

var _ Store = (*PinataStore)(nil)

// Name returns "pinata".
func (s *PinataStore) Name() string { return "pinata" }

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload pins data with pinFileToIPFS.
func (s *PinataStore) Upload(ctx context.Context, data []byte, suggestedName string) (domain.ContentLocator, error) {
	if len(data) == 0 {
		return "", uploadErr(s.Name(), 0, ErrEmptyContent)
	}
	if s.apiKey == "" || s.secretKey == "" {
		return "", uploadErr(s.Name(), 0, fmt.Errorf("missing API credentials"))
	}

	body, contentType, err := pinataForm(data, suggestedName)
	if err != nil {
		return "", uploadErr(s.Name(), 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", uploadErr(s.Name(), 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", s.apiKey)
	req.Header.Set("pinata_secret_api_key", s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", uploadErr(s.Name(), 0, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("pin rejected", "status", resp.StatusCode, "name", suggestedName)
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(respBody))))
	}

	var pr pinataResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if pr.IpfsHash == "" {
		return "", uploadErr(s.Name(), resp.StatusCode, fmt.Errorf("response has empty IpfsHash"))
	}

	loc := domain.NewContentLocator(domain.SchemeIPFS, pr.IpfsHash)
	s.logger.Info("pinned", "name", suggestedName, "uri", loc.String(), "size", pr.PinSize)
	return loc, nil
}

// pinataForm builds the multipart body with the file part and pin metadata.
func pinataForm(data []byte, suggestedName string) (io.Reader, string, error) {
	if suggestedName == "" {
		suggestedName = "file"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, suggestedName))
	h.Set("Content-Type", ContentType(suggestedName))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	meta, err := json.Marshal(map[string]string{"name": suggestedName})
	if err != nil {
		return nil, "", fmt.Errorf("marshal pin metadata: %w", err)
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, "", fmt.Errorf("write pin metadata: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
