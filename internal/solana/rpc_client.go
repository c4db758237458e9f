package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Client defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// DevnetEndpoint is the public devnet RPC endpoint.
const DevnetEndpoint = "https://api.devnet.solana.com"

// retryPolicy is an exponential backoff schedule for read calls.
type retryPolicy struct {
	maxRetries int
	initial    time.Duration
	max        time.Duration
	mult       float64
}

func (p retryPolicy) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * p.mult)
	if d > p.max {
		return p.max
	}
	return d
}

// HTTPClient implements RPCClient over HTTP JSON-RPC 2.0.
// Reads are retried on transport failures; sendTransaction never is.
type HTTPClient struct {
	endpoint   string
	client     *http.Client
	commitment Commitment
	retry      retryPolicy
	requestID  atomic.Uint64
	observer   func(method string, d time.Duration, err error)
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.client.Timeout = d }
}

// WithMaxRetries sets how many times a read call is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) { c.retry.maxRetries = n }
}

// WithRetryDelay sets the first backoff delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.retry.initial = d }
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.retry.max = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) { c.client = client }
}

// WithCommitment sets the commitment used for reads and preflight.
func WithCommitment(commitment Commitment) ClientOption {
	return func(c *HTTPClient) { c.commitment = commitment }
}

// WithCallObserver registers a callback invoked once per logical call, after retries.
func WithCallObserver(fn func(method string, d time.Duration, err error)) ClientOption {
	return func(c *HTTPClient) { c.observer = fn }
}

// NewHTTPClient creates a JSON-RPC client for endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		commitment: CommitmentConfirmed,
		retry: retryPolicy{
			maxRetries: DefaultMaxRetries,
			initial:    DefaultRetryDelay,
			max:        DefaultMaxDelay,
			mult:       DefaultBackoffMult,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ RPCClient = (*HTTPClient)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object returned by the node.
// Preflight simulation failures arrive as code -32002.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// transientError marks a failure worth another attempt.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// call runs a read method under the retry policy.
func (c *HTTPClient) call(ctx context.Context, method string, params []any, result any) error {
	return c.invoke(ctx, method, params, result, c.retry.maxRetries)
}

func (c *HTTPClient) invoke(ctx context.Context, method string, params []any, result any, maxRetries int) (err error) {
	if c.observer != nil {
		start := time.Now()
		defer func() { c.observer(method, time.Since(start), err) }()
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retry.initial
	for attempt := 0; ; attempt++ {
		raw, err := c.post(ctx, body)
		if err == nil {
			if result == nil || raw == nil {
				return nil
			}
			if err := json.Unmarshal(raw, result); err != nil {
				return fmt.Errorf("unmarshal %s result: %w", method, err)
			}
			return nil
		}

		var transient *transientError
		if !errors.As(err, &transient) {
			return err
		}
		if attempt >= maxRetries {
			if maxRetries == 0 {
				return transient.err
			}
			return fmt.Errorf("max retries exceeded: %w", transient.err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = c.retry.next(delay)
	}
}

// post performs one HTTP round trip and returns the raw result.
func (c *HTTPClient) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &transientError{fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &transientError{errors.New("rate limited (429)")}
	case resp.StatusCode != http.StatusOK:
		return nil, &transientError{fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, &transientError{fmt.Errorf("unmarshal response: %w", err)}
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// Request config objects.
type (
	accountInfoConfig struct {
		Encoding   string     `json:"encoding"`
		Commitment Commitment `json:"commitment"`
	}
	commitmentConfig struct {
		Commitment Commitment `json:"commitment"`
	}
	sendConfig struct {
		Encoding            string     `json:"encoding"`
		PreflightCommitment Commitment `json:"preflightCommitment"`
	}
	statusConfig struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}
)

// GetAccountInfo returns the account at pubkey, or nil when it does not exist.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	var result struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"` // [payload, encoding]
			Executable bool     `json:"executable"`
			RentEpoch  uint64   `json:"rentEpoch"`
		} `json:"value"`
	}
	params := []any{pubkey, accountInfoConfig{Encoding: "base64", Commitment: c.commitment}}
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}

	v := result.Value
	info := &AccountInfo{
		Lamports:   v.Lamports,
		Owner:      v.Owner,
		Executable: v.Executable,
		RentEpoch:  v.RentEpoch,
	}
	if len(v.Data) > 0 {
		info.Data = v.Data[0]
	}
	return info, nil
}

// GetLatestBlockhash returns a recent blockhash at the client commitment.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error) {
	var result struct {
		Value LatestBlockhash `json:"value"`
	}
	if err := c.call(ctx, "getLatestBlockhash", []any{commitmentConfig{c.commitment}}, &result); err != nil {
		return nil, err
	}
	if result.Value.Blockhash == "" {
		return nil, errors.New("empty blockhash in response")
	}
	return &result.Value, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for dataSize bytes.
func (c *HTTPClient) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	var lamports uint64
	if err := c.call(ctx, "getMinimumBalanceForRentExemption", []any{dataSize}, &lamports); err != nil {
		return 0, err
	}
	return lamports, nil
}

// SendTransaction submits a signed transaction exactly once. Resubmitting after
// an ambiguous transport failure could land the same mint twice.
func (c *HTTPClient) SendTransaction(ctx context.Context, rawTx []byte) (string, error) {
	params := []any{
		base64.StdEncoding.EncodeToString(rawTx),
		sendConfig{Encoding: "base64", PreflightCommitment: c.commitment},
	}

	var signature string
	if err := c.invoke(ctx, "sendTransaction", params, &signature, 0); err != nil {
		return "", err
	}
	if signature == "" {
		return "", errors.New("empty signature in response")
	}
	return signature, nil
}

// GetSignatureStatuses returns one entry per signature; unknown signatures are nil.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	var result struct {
		Value []*struct {
			Slot               int64      `json:"slot"`
			Confirmations      *uint64    `json:"confirmations"`
			Err                any        `json:"err"`
			ConfirmationStatus Commitment `json:"confirmationStatus"`
		} `json:"value"`
	}
	params := []any{signatures, statusConfig{SearchTransactionHistory: false}}
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			Err:                v.Err,
			ConfirmationStatus: v.ConfirmationStatus,
		}
	}
	return statuses, nil
}
