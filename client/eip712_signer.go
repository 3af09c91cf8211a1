package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// PrivateKeySigner signs typed data with a local secp256k1 key.
type PrivateKeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewPrivateKeySignerFromKey(privateKey), nil
}

func NewPrivateKeySignerFromKey(privateKey *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignTypedData returns a 65-byte [R || S || V] signature with V in {27, 28}.
func (s *PrivateKeySigner) SignTypedData(_ context.Context, data apitypes.TypedData) ([]byte, error) {
	digest, err := TypedDataDigest(data)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(digest.Bytes(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	signature[64] += 27

	return signature, nil
}

// RecoverTypedDataSigner returns the address that produced signature over data.
func RecoverTypedDataSigner(data apitypes.TypedData, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: signature length %d", ErrInvalidParam, len(signature))
	}
	digest, err := TypedDataDigest(data)
	if err != nil {
		return common.Address{}, err
	}

	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
