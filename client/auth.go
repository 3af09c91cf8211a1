package client

import (
	"errors"
	"net/http"
)

// HeaderAuth adds credentials to an outgoing HTTP request or WebSocket
// handshake. Signing of engine payloads is separate, see TypedDataSigner.
type HeaderAuth interface {
	Apply(h http.Header) error
}

const DefaultAPIKeyHeader = "X-API-Key"

var errEmptyCredential = errors.New("empty credential")

// APIKeyAuth sends a gateway API key in a single header.
type APIKeyAuth struct {
	Header string // DefaultAPIKeyHeader when empty
	Key    string
}

func (a APIKeyAuth) Apply(h http.Header) error {
	if a.Key == "" {
		return errEmptyCredential
	}
	name := a.Header
	if name == "" {
		name = DefaultAPIKeyHeader
	}
	h.Set(name, a.Key)
	return nil
}

type BearerAuth struct {
	Token string
}

func (a BearerAuth) Apply(h http.Header) error {
	if a.Token == "" {
		return errEmptyCredential
	}
	h.Set("Authorization", "Bearer "+a.Token)
	return nil
}
