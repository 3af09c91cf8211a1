package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Transport issues one JSON-RPC call and decodes its result into result.
// A JSON null result leaves pointer targets nil.
type Transport interface {
	Call(ctx context.Context, result any, method string, params ...any) error
	Close() error
}

// RPCError is a JSON-RPC error object returned by the engine.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// transportError maps errors from the go-ethereum rpc client onto the
// package's error values.
func transportError(method string, err error) error {
	if errors.Is(err, rpc.ErrClientQuit) {
		return fmt.Errorf("%s: %w", method, ErrTransportClosed)
	}
	if errors.Is(err, rpc.ErrNoResult) {
		return fmt.Errorf("%s: response has neither result nor error: %w", method, ErrAPIFailure)
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		// JSON-RPC servers may report errors with a non-2xx status
		var body struct {
			Error *RPCError `json:"error"`
		}
		if json.Unmarshal(httpErr.Body, &body) == nil && body.Error != nil {
			return body.Error
		}
		return fmt.Errorf("API error %d: %s: %w", httpErr.StatusCode, string(httpErr.Body), ErrAPIFailure)
	}

	var callErr rpc.Error
	if errors.As(err, &callErr) {
		rpcErr := &RPCError{Code: callErr.ErrorCode(), Message: callErr.Error()}
		var dataErr rpc.DataError
		if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
			if data, mErr := json.Marshal(dataErr.ErrorData()); mErr == nil {
				rpcErr.Data = data
			}
		}
		return rpcErr
	}
	return err
}
