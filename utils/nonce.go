package utils

import (
	"math/rand/v2"
	"time"
)

const (
	// NonceValidity is how far ahead of now the nonce's embedded expiry sits.
	NonceValidity = 10 * time.Second
	// NonceSubBits is the width of the low sub-component.
	NonceSubBits = 20
	// NonceSubRange bounds the random sub-component.
	NonceSubRange = 1000
)

// GenerateOrderNonce returns a fresh order nonce with a random sub-component
// in [0, NonceSubRange).
func GenerateOrderNonce() uint64 {
	return GenerateOrderNonceWithSub(rand.Uint64N(NonceSubRange))
}

// GenerateOrderNonceWithSub returns a nonce for the current time and the
// given sub-component.
func GenerateOrderNonceWithSub(sub uint64) uint64 {
	return OrderNonceAt(time.Now(), sub)
}

// OrderNonceAt packs (expireAtMillis << 20) | sub where expireAtMillis is
// now + NonceValidity. The engine reads the high bits as the nonce's expiry.
func OrderNonceAt(now time.Time, sub uint64) uint64 {
	expireAt := uint64(now.Add(NonceValidity).UnixMilli())
	return expireAt<<NonceSubBits | sub
}

// NonceExpiry extracts the embedded expiry from a nonce built by OrderNonceAt.
func NonceExpiry(nonce uint64) time.Time {
	return time.UnixMilli(int64(nonce >> NonceSubBits))
}
