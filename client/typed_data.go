package client

import (
	"fmt"
	"math/big"
	"strconv"

	"perpclient/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	EIP712DomainName    = "FOUNDATION"
	EIP712DomainVersion = "0.1.0"

	PrimaryTypeOrder      = "Order"
	PrimaryTypeCancel     = "Cancel"
	PrimaryTypeLinkSigner = "LinkSigner"
)

// Struct layouts checked by the engine's verifying contracts. Names, types
// and order all feed the type hash.
var (
	eip712DomainFields = []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}

	OrderFields = []apitypes.Type{
		{Name: "subaccount", Type: "bytes32"},
		{Name: "market", Type: "uint64"},
		{Name: "price", Type: "int128"},
		{Name: "amount", Type: "int128"},
		{Name: "nonce", Type: "uint64"},
		{Name: "expiration", Type: "uint64"},
		{Name: "triggerCondition", Type: "uint128"},
	}

	CancelFields = []apitypes.Type{
		{Name: "subaccount", Type: "bytes32"},
		{Name: "market", Type: "uint64"},
		{Name: "nonce", Type: "uint64"},
		{Name: "orderId", Type: "uint64"},
	}

	LinkSignerFields = []apitypes.Type{
		{Name: "sender", Type: "bytes32"},
		{Name: "signer", Type: "address"},
		{Name: "nonce", Type: "uint64"},
	}
)

// Domain is the variable part of the EIP-712 domain separator.
type Domain struct {
	ChainID           int64
	VerifyingContract common.Address
}

func newTypedData(primaryType string, fields []apitypes.Type, domain Domain, message apitypes.TypedDataMessage) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainFields,
			primaryType:    fields,
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              EIP712DomainName,
			Version:           EIP712DomainVersion,
			ChainId:           math.NewHexOrDecimal256(domain.ChainID),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: message,
	}
}

func parseUint64(field, value string) (*big.Int, error) {
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", ErrInvalidParam, field, value)
	}
	return new(big.Int).SetUint64(v), nil
}

// signedAmount scales amount and applies the side: bids sign a positive
// amount, asks the negated magnitude.
func signedAmount(side Side, amount string, decimals int32) (*big.Int, error) {
	v, err := utils.ParseUnits(amount, decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidParam, err)
	}
	v.Abs(v)

	switch side {
	case SideBid:
		return v, nil
	case SideAsk:
		return v.Neg(v), nil
	default:
		return nil, fmt.Errorf("%w: side %q", ErrInvalidParam, side)
	}
}

// OrderTypedData builds the Order struct signed for ob_place_limit.
func OrderTypedData(payload EnginePlaceOrder, domain Domain, decimals int32) (apitypes.TypedData, error) {
	price, err := utils.ParseUnits(payload.Price, decimals)
	if err != nil {
		return apitypes.TypedData{}, fmt.Errorf("%w: price: %v", ErrInvalidParam, err)
	}
	amount, err := signedAmount(payload.Side, payload.Amount, decimals)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	nonce, err := parseUint64("nonce", payload.Nonce)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	expiration, err := EncodeExpiration(payload)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	trigger, err := EncodeTriggerCondition(payload.TriggerCondition)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	return newTypedData(PrimaryTypeOrder, OrderFields, domain, apitypes.TypedDataMessage{
		"subaccount":       payload.AccountID.Hex(),
		"market":           new(big.Int).SetUint64(payload.MarketID),
		"price":            price,
		"amount":           amount,
		"nonce":            nonce,
		"expiration":       new(big.Int).SetUint64(expiration),
		"triggerCondition": trigger,
	}), nil
}

// CancelTypedData builds the Cancel struct signed for ob_cancel.
func CancelTypedData(payload EngineCancelOrder, domain Domain) (apitypes.TypedData, error) {
	nonce, err := parseUint64("nonce", payload.Nonce)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	orderID, err := parseUint64("order id", payload.OrderID)
	if err != nil {
		return apitypes.TypedData{}, err
	}

	return newTypedData(PrimaryTypeCancel, CancelFields, domain, apitypes.TypedDataMessage{
		"subaccount": payload.AccountID.Hex(),
		"market":     new(big.Int).SetUint64(payload.MarketID),
		"nonce":      nonce,
		"orderId":    orderID,
	}), nil
}

// LinkSignerTypedData builds the LinkSigner struct signed for ob_add_trading_key.
func LinkSignerTypedData(params AddTradingKey, domain Domain) apitypes.TypedData {
	return newTypedData(PrimaryTypeLinkSigner, LinkSignerFields, domain, apitypes.TypedDataMessage{
		"sender": params.AccountID.Hex(),
		"signer": params.Signer.Hex(),
		"nonce":  new(big.Int).SetUint64(params.Nonce),
	})
}

// TypedDataDigest computes keccak256(0x19 0x01 || domainSeparator || hashStruct(message)).
func TypedDataDigest(data apitypes.TypedData) (common.Hash, error) {
	domainSeparator, err := data.HashStruct("EIP712Domain", data.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	messageHash, err := data.HashStruct(data.PrimaryType, data.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, messageHash...)
	return crypto.Keccak256Hash(rawData), nil
}
