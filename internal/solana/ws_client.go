package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrWSClosed is returned by subscriptions on a closed client.
var ErrWSClosed = errors.New("websocket client closed")

// WSClientConfig configures WebSocket client behavior. Zero fields take defaults.
type WSClientConfig struct {
	// ReconnectDelay is the first delay before a redial; it doubles up to MaxReconnectDelay.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	// PingInterval is how often a ping frame is written.
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription ID.
	SubscribeTimeout time.Duration
	// Logger receives connection diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

func (c WSClientConfig) withDefaults() WSClientConfig {
	d := DefaultWSConfig()
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.MaxReconnectDelay <= 0 {
		c.MaxReconnectDelay = d.MaxReconnectDelay
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.SubscribeTimeout <= 0 {
		c.SubscribeTimeout = d.SubscribeTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// sigWatch is one signature being watched. It lives in at most one of
// WSClientImpl.waiting or WSClientImpl.active at a time; reqID and subID
// are its keys there and are guarded by WSClientImpl.mu.
type sigWatch struct {
	signature  string
	commitment Commitment
	out        chan SignatureNotification
	ack        chan subAck
	reqID      uint64
	subID      int64
	released   bool
}

type subAck struct {
	id  int64
	err error
}

// WSClientImpl implements WSClient using gorilla/websocket. Outstanding
// watches survive a reconnect: they are resubscribed on the new connection.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig
	logger   *slog.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn // guarded by writeMu

	closed atomic.Bool
	nextID atomic.Uint64

	mu      sync.Mutex
	waiting map[uint64]*sigWatch // request ID -> watch awaiting its subscription ID
	active  map[int64]*sigWatch  // subscription ID -> watch

	done chan struct{}
	wg   sync.WaitGroup
}

var _ WSClient = (*WSClientImpl)(nil)

// NewWSClient dials endpoint and starts the reader and keepalive loops.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	var cfg WSClientConfig
	if config != nil {
		cfg = *config
	}
	cfg = cfg.withDefaults()

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		logger:   cfg.Logger.With("component", "solana_ws"),
		waiting:  make(map[uint64]*sigWatch),
		active:   make(map[int64]*sigWatch),
		done:     make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	c.wg.Add(2)
	go c.readLoop(conn)
	go c.pingLoop()
	return c, nil
}

func (c *WSClientImpl) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

// SubscribeSignature watches one signature. The channel yields at most one
// notification and is then closed; it is closed without a value on Close.
// unsubscribe drops the watch and cancels it on the node; call it once the
// caller stops reading. It is safe to call after the notification arrived.
func (c *WSClientImpl) SubscribeSignature(ctx context.Context, signature string, commitment Commitment) (<-chan SignatureNotification, func(), error) {
	if c.closed.Load() {
		return nil, nil, ErrWSClosed
	}

	w := &sigWatch{
		signature:  signature,
		commitment: commitment,
		out:        make(chan SignatureNotification, 1),
		ack:        make(chan subAck, 1),
	}
	if err := c.send(w); err != nil {
		return nil, nil, err
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case ack := <-w.ack:
		if ack.err != nil {
			return nil, nil, fmt.Errorf("signatureSubscribe: %w", ack.err)
		}
		var once sync.Once
		return w.out, func() { once.Do(func() { c.release(w) }) }, nil
	case <-timer.C:
		c.release(w)
		return nil, nil, fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-ctx.Done():
		c.release(w)
		return nil, nil, ctx.Err()
	case <-c.done:
		return nil, nil, ErrWSClosed
	}
}

// send registers w under a fresh request ID and writes the subscribe request.
func (c *WSClientImpl) send(w *sigWatch) error {
	reqID := c.nextID.Add(1)

	c.mu.Lock()
	if w.released {
		// Released while a reconnect was resubscribing it
		c.mu.Unlock()
		return nil
	}
	w.reqID = reqID
	c.waiting[reqID] = w
	c.mu.Unlock()

	err := c.request(reqID, "signatureSubscribe", []any{w.signature, commitmentConfig{Commitment: w.commitment}})
	if err != nil {
		c.forget(reqID)
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// request writes one JSON-RPC request on the current connection.
func (c *WSClientImpl) request(id uint64, method string, params []any) error {
	req := wsRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.write(func(conn *websocket.Conn) error { return conn.WriteJSON(req) })
}

// release removes w from whichever map holds it. A watch the node already
// confirmed is cancelled there with signatureUnsubscribe; the reply carries
// an ID nothing waits on and is dropped by dispatch.
func (c *WSClientImpl) release(w *sigWatch) {
	c.mu.Lock()
	w.released = true
	if cur, ok := c.waiting[w.reqID]; ok && cur == w {
		delete(c.waiting, w.reqID)
	}
	subscribed := false
	if cur, ok := c.active[w.subID]; ok && cur == w {
		delete(c.active, w.subID)
		subscribed = true
	}
	subID := w.subID
	c.mu.Unlock()

	if !subscribed || c.closed.Load() {
		return
	}
	if err := c.request(c.nextID.Add(1), "signatureUnsubscribe", []any{subID}); err != nil {
		c.logger.Debug("signatureUnsubscribe failed", "subscription", subID, "error", err)
	}
}

// write runs fn against the current connection. Callers hold writeMu.
func (c *WSClientImpl) write(fn func(*websocket.Conn) error) error {
	if c.conn == nil {
		return errors.New("not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return fn(c.conn)
}

func (c *WSClientImpl) forget(reqID uint64) {
	c.mu.Lock()
	delete(c.waiting, reqID)
	c.mu.Unlock()
}

// Close shuts the connection down and closes every outstanding channel. Idempotent.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.writeMu.Lock()
	if c.conn != nil {
		_ = c.write(func(conn *websocket.Conn) error {
			return conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		})
		_ = c.conn.Close()
	}
	c.writeMu.Unlock()

	c.mu.Lock()
	for id, w := range c.active {
		close(w.out)
		delete(c.active, id)
	}
	for id, w := range c.waiting {
		close(w.out)
		delete(c.waiting, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop dispatches messages until Close, redialing on read failures.
func (c *WSClientImpl) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err == nil {
			c.dispatch(message)
			continue
		}
		if c.closed.Load() {
			return
		}

		c.logger.Warn("websocket read failed, reconnecting", "error", err)
		conn = c.redial()
		if conn == nil {
			return
		}
	}
}

// redial reconnects with exponential backoff and resubscribes outstanding
// watches. Returns nil once the client is closed.
func (c *WSClientImpl) redial() *websocket.Conn {
	delay := c.config.ReconnectDelay
	for {
		select {
		case <-c.done:
			return nil
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("websocket redial failed", "error", err, "retry_in", delay)
			delay = min(delay*2, c.config.MaxReconnectDelay)
			continue
		}

		c.writeMu.Lock()
		if c.closed.Load() {
			c.writeMu.Unlock()
			_ = conn.Close()
			return nil
		}
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.conn = conn
		c.writeMu.Unlock()

		c.resubscribe()
		return conn
	}
}

// resubscribe moves every active watch back to waiting under a new request.
// Subscription IDs from the old connection are meaningless on the new one.
func (c *WSClientImpl) resubscribe() {
	c.mu.Lock()
	watches := make([]*sigWatch, 0, len(c.active)+len(c.waiting))
	for _, w := range c.active {
		watches = append(watches, w)
	}
	for _, w := range c.waiting {
		watches = append(watches, w)
	}
	c.active = make(map[int64]*sigWatch)
	c.waiting = make(map[uint64]*sigWatch)
	c.mu.Unlock()

	for _, w := range watches {
		if err := c.send(w); err != nil {
			c.logger.Warn("resubscribe failed", "signature", w.signature, "error", err)
		}
	}
}

func (c *WSClientImpl) dispatch(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug("ignoring malformed websocket message", "error", err)
		return
	}

	switch {
	case msg.Method == "signatureNotification" && msg.Params != nil:
		c.notify(msg.Params)
	case msg.ID != 0 && msg.Error != nil:
		c.acknowledge(msg.ID, subAck{err: msg.Error})
	case msg.ID != 0 && len(msg.Result) > 0:
		var subID int64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			c.acknowledge(msg.ID, subAck{err: fmt.Errorf("decode subscription id: %w", err)})
			return
		}
		c.acknowledge(msg.ID, subAck{id: subID})
	}
}

// acknowledge activates the watch waiting on reqID. The watch is activated
// here, before any later message is read, so an immediate notification finds it.
func (c *WSClientImpl) acknowledge(reqID uint64, ack subAck) {
	c.mu.Lock()
	w, ok := c.waiting[reqID]
	if ok {
		delete(c.waiting, reqID)
		if ack.err == nil {
			w.subID = ack.id
			c.active[ack.id] = w
		}
	}
	c.mu.Unlock()

	if !ok {
		return
	}
	select {
	case w.ack <- ack:
	default:
	}
}

// notify delivers the notification and drops the watch; the node cancels
// signature subscriptions after the first notification.
func (c *WSClientImpl) notify(p *wsNotificationParams) {
	c.mu.Lock()
	w, ok := c.active[p.Subscription]
	if ok {
		delete(c.active, p.Subscription)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	n := SignatureNotification{Signature: w.signature, Err: p.Result.Value.Err}
	if p.Result.Context != nil {
		n.Slot = p.Result.Context.Slot
	}
	w.out <- n
	close(w.out)
}

func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			// A dead connection surfaces in the reader
			_ = c.write(func(conn *websocket.Conn) error {
				return conn.WriteMessage(websocket.PingMessage, nil)
			})
			c.writeMu.Unlock()
		}
	}
}

type wsRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// wsMessage covers subscribe responses, error responses and notifications.
type wsMessage struct {
	ID     uint64                `json:"id"`
	Method string                `json:"method"`
	Result json.RawMessage       `json:"result"`
	Error  *RPCError             `json:"error"`
	Params *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Context *struct {
			Slot int64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Err any `json:"err"`
		} `json:"value"`
	} `json:"result"`
}
