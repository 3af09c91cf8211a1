package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"perpclient/logger"

	"github.com/ethereum/go-ethereum/rpc"
)

// Client is the JSON-RPC transport, backed by the go-ethereum rpc client.
// The URL scheme selects HTTP or WebSocket. The connection is dialed on the
// first call; setters only affect a dial that has not happened yet.
type Client struct {
	baseUrl   string
	websocket bool
	logger    *logger.Logger

	mu         sync.Mutex
	httpClient *http.Client
	headers    http.Header
	auth       HeaderAuth
	conn       *rpc.Client
	closed     bool
}

func NewClient(baseUrl string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseUrl:    baseUrl,
		websocket:  isWebsocketURL(baseUrl),
		logger:     log,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		headers:    http.Header{},
	}
}

// SetHTTPClient replaces the underlying http.Client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = hc
}

// SetHeaders adds headers sent with every HTTP request or the WebSocket
// handshake, e.g. a gateway API key.
func (c *Client) SetHeaders(h map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range h {
		c.headers.Set(k, v)
	}
}

func (c *Client) SetAuth(auth HeaderAuth) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

func (c *Client) Call(ctx context.Context, result any, method string, params ...any) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	// positional params are always sent, as [] when there are none
	if params == nil {
		params = []any{}
	}
	if err := conn.CallContext(ctx, result, method, params...); err != nil {
		return transportError(method, err)
	}
	return nil
}

// Close drops the connection and fails calls still waiting for a response.
// The client cannot be reused afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) dial(ctx context.Context) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrTransportClosed
	}
	if c.conn != nil {
		return c.conn, nil
	}

	opts := []rpc.ClientOption{
		rpc.WithHTTPClient(c.httpClient),
		rpc.WithHeaders(c.headers.Clone()),
	}
	if c.auth != nil {
		opts = append(opts, rpc.WithHTTPAuth(c.auth.Apply))
	}
	if c.websocket {
		opts = append(opts, rpc.WithWebsocketDialer(newWebsocketDialer()))
	}

	conn, err := rpc.DialOptions(ctx, c.baseUrl, opts...)
	if err != nil {
		c.logger.Error("rpc_dial_failed", "url", c.baseUrl, "err", err)
		return nil, err
	}
	c.conn = conn
	if c.websocket {
		c.logger.Info("ws_connected", "url", c.baseUrl)
	}
	return conn, nil
}
