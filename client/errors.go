package client

import "errors"

var (
	ErrAPIFailure      = errors.New("engine request failed")
	ErrInvalidParam    = errors.New("the param is invalid")
	ErrTransportClosed = errors.New("transport is closed")
	ErrNilSigner       = errors.New("signer is required")
)
