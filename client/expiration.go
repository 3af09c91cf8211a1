package client

import (
	"fmt"
	"math/big"
	"slices"
)

// Expiration bit layout, most significant first:
//
//	63-62 time in force | 61 reduce only | 60 market order | 59-58 self trade | 57-0 expires at (epoch s)
const (
	tifShift        = 62
	reduceOnlyShift = 61
	isMarketShift   = 60
	stbShift        = 58

	// MaxExpiresAt is the largest timestamp the low field can hold.
	MaxExpiresAt uint64 = 1<<stbShift - 1
)

var maxTriggerCondition = new(big.Int).Lsh(big.NewInt(1), 128)

func timeInForceCode(tif TimeInForce) (uint64, error) {
	idx := slices.Index(TimeInForces, tif)
	if idx < 0 {
		return 0, fmt.Errorf("%w: time in force %q", ErrInvalidParam, tif)
	}
	return uint64(idx), nil
}

func selfTradeBehaviorCode(stb SelfTradeBehavior) (uint64, error) {
	idx := slices.Index(SelfTradeBehaviors, stb)
	if idx < 0 {
		return 0, fmt.Errorf("%w: self trade behavior %q", ErrInvalidParam, stb)
	}
	return uint64(idx), nil
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// EncodeExpiration packs the order's execution flags and expiry into the
// 64-bit expiration field the engine verifies. A missing expiry encodes as
// 0, which the engine reads as never expiring.
func EncodeExpiration(order EnginePlaceOrder) (uint64, error) {
	tif, err := timeInForceCode(order.TimeInForce)
	if err != nil {
		return 0, err
	}
	stb, err := selfTradeBehaviorCode(order.SelfTradeBehavior)
	if err != nil {
		return 0, err
	}

	var expiresAt uint64
	if order.ExpiresAt != nil {
		expiresAt = *order.ExpiresAt
	}
	if expiresAt > MaxExpiresAt {
		return 0, fmt.Errorf("%w: expires at %d exceeds 58 bits", ErrInvalidParam, expiresAt)
	}

	return tif<<tifShift |
		boolBit(order.ReduceOnly)<<reduceOnlyShift |
		boolBit(order.IsMarketOrder)<<isMarketShift |
		stb<<stbShift |
		expiresAt, nil
}

// DecodeExpiration splits an encoded expiration field back into its parts.
func DecodeExpiration(v uint64) OrderExpiration {
	exp := OrderExpiration{
		TimeInForce:       TimeInForces[v>>tifShift&0b11],
		ReduceOnly:        v>>reduceOnlyShift&1 == 1,
		IsMarketOrder:     v>>isMarketShift&1 == 1,
		SelfTradeBehavior: SelfTradeBehaviors[v>>stbShift&0b11],
	}
	if ts := v & MaxExpiresAt; ts != 0 {
		exp.ExpiresAt = &ts
	}
	return exp
}

// EncodeTriggerCondition returns the 128-bit trigger field for signing.
// Orders without a trigger encode to zero. A supplied value must already be
// in the engine's packed form; it is range checked and passed through.
func EncodeTriggerCondition(trigger *big.Int) (*big.Int, error) {
	if trigger == nil {
		return new(big.Int), nil
	}
	if trigger.Sign() < 0 || trigger.Cmp(maxTriggerCondition) >= 0 {
		return nil, fmt.Errorf("%w: trigger condition out of uint128 range", ErrInvalidParam)
	}
	return new(big.Int).Set(trigger), nil
}
