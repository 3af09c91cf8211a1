package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type rpcHandler func(params []json.RawMessage) (any, *RPCError)

type recordedCall struct {
	Method string
	Params []json.RawMessage
}

// fakeEngine answers JSON-RPC requests over HTTP or WebSocket from a table
// of per-method handlers and records every call it sees.
type fakeEngine struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]rpcHandler
	silent   map[string]bool
	empty    map[string]bool
	calls    []recordedCall
}

func newFakeEngine(t *testing.T) *fakeEngine {
	return &fakeEngine{
		t:        t,
		handlers: map[string]rpcHandler{},
		silent:   map[string]bool{},
		empty:    map[string]bool{},
	}
}

func (f *fakeEngine) handle(method string, h rpcHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// result registers a handler that always returns v.
func (f *fakeEngine) result(method string, v any) {
	f.handle(method, func([]json.RawMessage) (any, *RPCError) { return v, nil })
}

// rawResult registers a handler that returns a literal JSON document.
func (f *fakeEngine) rawResult(method, doc string) {
	f.result(method, json.RawMessage(doc))
}

// neverRespond makes the WebSocket server swallow calls to method.
func (f *fakeEngine) neverRespond(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent[method] = true
}

// emptyResponse makes calls to method answer with neither result nor error.
func (f *fakeEngine) emptyResponse(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empty[method] = true
}

func (f *fakeEngine) callsTo(method string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeEngine) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// respond returns the encoded response, or nil when the call must be dropped.
func (f *fakeEngine) respond(raw []byte) []byte {
	var req struct {
		ID     json.RawMessage   `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(f.t, json.Unmarshal(raw, &req))

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: req.Method, Params: req.Params})
	h, ok := f.handlers[req.Method]
	silent := f.silent[req.Method]
	empty := f.empty[req.Method]
	f.mu.Unlock()

	if silent {
		return nil
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case empty:
	case !ok:
		resp["error"] = &RPCError{Code: -32601, Message: "Method not found"}
	default:
		if result, rpcErr := h(req.Params); rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
	}

	out, err := json.Marshal(resp)
	require.NoError(f.t, err)
	return out
}

func (f *fakeEngine) httpServer() *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(f.t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(f.respond(body))
	}))
	f.t.Cleanup(srv.Close)
	return srv
}

func (f *fakeEngine) wsServer() *httptest.Server {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var writeMu sync.Mutex
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			go func(msg []byte) {
				out := f.respond(msg)
				if out == nil {
					return
				}
				writeMu.Lock()
				defer writeMu.Unlock()
				_ = conn.WriteMessage(websocket.TextMessage, out)
			}(msg)
		}
	}))
	f.t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func decodeParam[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
