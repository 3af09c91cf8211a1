package client

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = Domain{ChainID: DefaultChainID, VerifyingContract: testOffchainBook}

func mustBig(t *testing.T, v any) *big.Int {
	t.Helper()
	n, ok := v.(*big.Int)
	require.Truef(t, ok, "expected *big.Int, got %T", v)
	return n
}

func testOrderPayload(side Side) EnginePlaceOrder {
	return EnginePlaceOrder{
		AccountID:         testAccountID,
		MarketID:          1,
		Side:              side,
		Price:             "101.5",
		Amount:            "2",
		Nonce:             "1820000000000000042",
		TimeInForce:       TimeInForceDefault,
		SelfTradeBehavior: SelfTradeCancelProvide,
	}
}

func fieldNames(fields []apitypes.Type) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name+" "+f.Type)
	}
	return out
}

func TestTypedDataFieldLayouts(t *testing.T) {
	assert.Equal(t, []string{
		"subaccount bytes32", "market uint64", "price int128", "amount int128",
		"nonce uint64", "expiration uint64", "triggerCondition uint128",
	}, fieldNames(OrderFields))
	assert.Equal(t, []string{
		"subaccount bytes32", "market uint64", "nonce uint64", "orderId uint64",
	}, fieldNames(CancelFields))
	assert.Equal(t, []string{
		"sender bytes32", "signer address", "nonce uint64",
	}, fieldNames(LinkSignerFields))
}

func TestOrderTypedData_Domain(t *testing.T) {
	data, err := OrderTypedData(testOrderPayload(SideBid), Domain{ChainID: 8453, VerifyingContract: testOffchainBook}, DefaultDecimals)
	require.NoError(t, err)

	assert.Equal(t, PrimaryTypeOrder, data.PrimaryType)
	assert.Equal(t, "FOUNDATION", data.Domain.Name)
	assert.Equal(t, "0.1.0", data.Domain.Version)
	assert.Equal(t, int64(8453), (*big.Int)(data.Domain.ChainId).Int64())
	assert.Equal(t, testOffchainBook.Hex(), data.Domain.VerifyingContract)
	assert.Contains(t, data.Types, "EIP712Domain")
	assert.Contains(t, data.Types, PrimaryTypeOrder)
}

func TestOrderTypedData_Message(t *testing.T) {
	payload := testOrderPayload(SideBid)
	expiresAt := uint64(1735689600)
	payload.ExpiresAt = &expiresAt
	payload.TimeInForce = TimeInForcePostOnly
	payload.ReduceOnly = true

	data, err := OrderTypedData(payload, testDomain, DefaultDecimals)
	require.NoError(t, err)

	wantPrice, _ := new(big.Int).SetString("101500000000000000000", 10)
	wantAmount, _ := new(big.Int).SetString("2000000000000000000", 10)
	wantExpiration, err := EncodeExpiration(payload)
	require.NoError(t, err)

	assert.Equal(t, testAccountID.Hex(), data.Message["subaccount"])
	assert.Equal(t, 0, mustBig(t, data.Message["market"]).Cmp(big.NewInt(1)))
	assert.Equal(t, 0, mustBig(t, data.Message["price"]).Cmp(wantPrice))
	assert.Equal(t, 0, mustBig(t, data.Message["amount"]).Cmp(wantAmount))
	assert.Equal(t, "1820000000000000042", mustBig(t, data.Message["nonce"]).String())
	assert.Equal(t, wantExpiration, mustBig(t, data.Message["expiration"]).Uint64())
	assert.Zero(t, mustBig(t, data.Message["triggerCondition"]).Sign())
}

func TestOrderTypedData_SideSetsAmountSign(t *testing.T) {
	bid, err := OrderTypedData(testOrderPayload(SideBid), testDomain, DefaultDecimals)
	require.NoError(t, err)
	ask, err := OrderTypedData(testOrderPayload(SideAsk), testDomain, DefaultDecimals)
	require.NoError(t, err)

	bidAmount := mustBig(t, bid.Message["amount"])
	askAmount := mustBig(t, ask.Message["amount"])
	assert.Equal(t, 1, bidAmount.Sign())
	assert.Equal(t, -1, askAmount.Sign())
	assert.Equal(t, 0, new(big.Int).Neg(bidAmount).Cmp(askAmount))

	// a pre-signed amount is treated as a magnitude
	payload := testOrderPayload(SideAsk)
	payload.Amount = "-2"
	negated, err := OrderTypedData(payload, testDomain, DefaultDecimals)
	require.NoError(t, err)
	assert.Equal(t, 0, mustBig(t, negated.Message["amount"]).Cmp(askAmount))
}

func TestOrderTypedData_Decimals(t *testing.T) {
	data, err := OrderTypedData(testOrderPayload(SideBid), testDomain, 6)
	require.NoError(t, err)
	assert.Equal(t, "101500000", mustBig(t, data.Message["price"]).String())
	assert.Equal(t, "2000000", mustBig(t, data.Message["amount"]).String())
}

func TestOrderTypedData_TriggerCondition(t *testing.T) {
	payload := testOrderPayload(SideBid)
	payload.TriggerCondition = big.NewInt(12345)

	data, err := OrderTypedData(payload, testDomain, DefaultDecimals)
	require.NoError(t, err)
	assert.Equal(t, "12345", mustBig(t, data.Message["triggerCondition"]).String())

	payload.TriggerCondition = new(big.Int).Lsh(big.NewInt(1), 128)
	_, err = OrderTypedData(payload, testDomain, DefaultDecimals)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestOrderTypedData_RejectsInvalidPayload(t *testing.T) {
	cases := map[string]func(*EnginePlaceOrder){
		"side":     func(p *EnginePlaceOrder) { p.Side = "long" },
		"price":    func(p *EnginePlaceOrder) { p.Price = "1.2.3" },
		"amount":   func(p *EnginePlaceOrder) { p.Amount = "" },
		"nonce":    func(p *EnginePlaceOrder) { p.Nonce = "-1" },
		"tif":      func(p *EnginePlaceOrder) { p.TimeInForce = "gtc" },
		"stb":      func(p *EnginePlaceOrder) { p.SelfTradeBehavior = "none" },
		"overflow": func(p *EnginePlaceOrder) { p.Nonce = "18446744073709551616" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			payload := testOrderPayload(SideBid)
			mutate(&payload)
			_, err := OrderTypedData(payload, testDomain, DefaultDecimals)
			assert.ErrorIs(t, err, ErrInvalidParam)
		})
	}
}

func TestCancelTypedData(t *testing.T) {
	data, err := CancelTypedData(EngineCancelOrder{
		AccountID: testAccountID,
		MarketID:  3,
		OrderID:   "17",
		Nonce:     "99",
	}, testDomain)
	require.NoError(t, err)

	assert.Equal(t, PrimaryTypeCancel, data.PrimaryType)
	assert.Equal(t, testAccountID.Hex(), data.Message["subaccount"])
	assert.Equal(t, "3", mustBig(t, data.Message["market"]).String())
	assert.Equal(t, "99", mustBig(t, data.Message["nonce"]).String())
	assert.Equal(t, "17", mustBig(t, data.Message["orderId"]).String())

	_, err = CancelTypedData(EngineCancelOrder{AccountID: testAccountID, OrderID: "x", Nonce: "1"}, testDomain)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestLinkSignerTypedData(t *testing.T) {
	signer := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	data := LinkSignerTypedData(AddTradingKey{AccountID: testAccountID, Signer: signer, Nonce: 4},
		Domain{ChainID: DefaultChainID, VerifyingContract: testEndpoint})

	assert.Equal(t, PrimaryTypeLinkSigner, data.PrimaryType)
	assert.Equal(t, testEndpoint.Hex(), data.Domain.VerifyingContract)
	assert.Equal(t, testAccountID.Hex(), data.Message["sender"])
	assert.Equal(t, signer.Hex(), data.Message["signer"])
	assert.Equal(t, "4", mustBig(t, data.Message["nonce"]).String())
}

func TestTypedDataDigest_MatchesGethEncoding(t *testing.T) {
	data, err := OrderTypedData(testOrderPayload(SideAsk), testDomain, DefaultDecimals)
	require.NoError(t, err)

	digest, err := TypedDataDigest(data)
	require.NoError(t, err)

	data, err = OrderTypedData(testOrderPayload(SideAsk), testDomain, DefaultDecimals)
	require.NoError(t, err)
	want, _, err := apitypes.TypedDataAndHash(data)
	require.NoError(t, err)
	assert.Equal(t, common.BytesToHash(want), digest)
}

func TestPrivateKeySigner_SignAndRecover(t *testing.T) {
	signer := newTestSigner(t)
	ctx := context.Background()

	data, err := OrderTypedData(testOrderPayload(SideBid), testDomain, DefaultDecimals)
	require.NoError(t, err)
	sig, err := signer.SignTypedData(ctx, data)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := RecoverTypedDataSigner(data, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)

	otherChain, err := OrderTypedData(testOrderPayload(SideBid), Domain{ChainID: 2, VerifyingContract: testOffchainBook}, DefaultDecimals)
	require.NoError(t, err)
	recovered, err = RecoverTypedDataSigner(otherChain, sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer.Address(), recovered)

	otherSide, err := OrderTypedData(testOrderPayload(SideAsk), testDomain, DefaultDecimals)
	require.NoError(t, err)
	recovered, err = RecoverTypedDataSigner(otherSide, sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer.Address(), recovered)

	_, err = RecoverTypedDataSigner(data, sig[:64])
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestNewPrivateKeySigner(t *testing.T) {
	const key = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	const want = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"

	plain, err := NewPrivateKeySigner(key)
	require.NoError(t, err)
	prefixed, err := NewPrivateKeySigner("0x" + key)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(want), plain.Address())
	assert.Equal(t, plain.Address(), prefixed.Address())

	_, err = NewPrivateKeySigner("not-a-key")
	assert.Error(t, err)
}
