package client

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedDataSigner signs EIP-712 typed data on behalf of one address.
// A local key, a smart-contract account or a hardware wallet can sit behind it;
// the returned bytes are passed to the engine as-is.
type TypedDataSigner interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}
