package client

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsBufferSize       = 64 * 1024
)

// isWebsocketURL reports whether rawURL names a ws:// or wss:// endpoint.
func isWebsocketURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "ws")
}

// newWebsocketDialer is handed to the rpc client for ws:// and wss:// URLs.
// Keepalive pings are sent by the rpc client itself.
func newWebsocketDialer() websocket.Dialer {
	return websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: wsHandshakeTimeout,
		ReadBufferSize:   wsBufferSize,
		WriteBufferSize:  wsBufferSize,
	}
}
