package client

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
)

type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

type TimeInForce string

// Declaration order is the wire code; see EncodeExpiration.
const (
	TimeInForceDefault  TimeInForce = "default"
	TimeInForceIOC      TimeInForce = "ioc"
	TimeInForceFOK      TimeInForce = "fok"
	TimeInForcePostOnly TimeInForce = "post_only"
)

var TimeInForces = []TimeInForce{
	TimeInForceDefault,
	TimeInForceIOC,
	TimeInForceFOK,
	TimeInForcePostOnly,
}

type SelfTradeBehavior string

const (
	SelfTradeCancelProvide SelfTradeBehavior = "cancel_provide"
	SelfTradeCancelTake    SelfTradeBehavior = "cancel_take"
	SelfTradeCancelBoth    SelfTradeBehavior = "cancel_both"
	SelfTradeDecrementTake SelfTradeBehavior = "decrement_take"
)

var SelfTradeBehaviors = []SelfTradeBehavior{
	SelfTradeCancelProvide,
	SelfTradeCancelTake,
	SelfTradeCancelBoth,
	SelfTradeDecrementTake,
}

type OrderTag string

const (
	OrderTagLimit      OrderTag = "limit"
	OrderTagMarket     OrderTag = "market"
	OrderTagStopLoss   OrderTag = "stop_loss"
	OrderTagTakeProfit OrderTag = "take_profit"
)

type OrderSource string

const (
	OrderSourceTrade              OrderSource = "Trade"
	OrderSourceLiquidate          OrderSource = "Liquidate"
	OrderSourceInsuranceFundCover OrderSource = "InsuranceFundCover"
	OrderSourceDeleverage         OrderSource = "Deleverage"
	OrderSourceDelist             OrderSource = "Delist"
)

// OrderStatus is passed through as the engine reports it.
type OrderStatus string

// =============================
// Trading venue config
// =============================

type AddressConfig struct {
	Endpoint     common.Address `json:"endpoint"`
	CRManager    common.Address `json:"cr_manager"`
	OffchainBook common.Address `json:"offchain_book"`
}

type FeeTier struct {
	MakerFee string `json:"maker_fee"`
	TakerFee string `json:"taker_fee"`
}

type TradingConfig struct {
	ChainID        int64         `json:"chain_id,omitempty"`
	Addresses      AddressConfig `json:"addresses"`
	SystemFeeTiers []FeeTier     `json:"system_fee_tiers"`
}

// =============================
// Requests
// =============================

type ClientPlaceOrder struct {
	AccountID         common.Hash
	MarketID          uint64
	Side              Side
	Price             string
	Amount            string
	TimeInForce       TimeInForce       // empty means default
	ReduceOnly        bool
	IsMarketOrder     bool
	SelfTradeBehavior SelfTradeBehavior // empty means cancel_provide
	Nonce             mo.Option[string]
	ExpiresAt         mo.Option[uint64] // epoch seconds
	TriggerCondition  mo.Option[*big.Int]
	VerifyingAddr     mo.Option[common.Address]
}

type EnginePlaceOrder struct {
	AccountID         common.Hash       `json:"account_id"`
	MarketID          uint64            `json:"market_id"`
	Side              Side              `json:"side"`
	Price             string            `json:"price"`
	Amount            string            `json:"amount"`
	TimeInForce       TimeInForce       `json:"time_in_force"`
	ReduceOnly        bool              `json:"reduce_only"`
	IsMarketOrder     bool              `json:"is_market_order"`
	SelfTradeBehavior SelfTradeBehavior `json:"self_trade_behavior"`
	Nonce             string            `json:"nonce"`
	ExpiresAt         *uint64           `json:"expires_at,omitempty"`
	TriggerCondition  *big.Int          `json:"trigger_condition,omitempty"`
}

type ClientCancelOrder struct {
	AccountID     common.Hash
	MarketID      uint64
	OrderID       string
	Nonce         mo.Option[string]
	VerifyingAddr mo.Option[common.Address]
}

type EngineCancelOrder struct {
	AccountID common.Hash `json:"account_id"`
	MarketID  uint64      `json:"market_id"`
	OrderID   string      `json:"order_id"`
	Nonce     string      `json:"nonce"`
}

type AddTradingKey struct {
	AccountID common.Hash
	Signer    common.Address
	Nonce     uint64
}

type tradingKeyLink struct {
	AccountID common.Hash    `json:"account_id"`
	Signer    common.Address `json:"signer"`
}

// =============================
// Orders
// =============================

type OrderExpiration struct {
	TimeInForce       TimeInForce       `json:"time_in_force"`
	ReduceOnly        bool              `json:"reduce_only"`
	SelfTradeBehavior SelfTradeBehavior `json:"self_trade_behavior"`
	ExpiresAt         *uint64           `json:"expires_at"`
	IsMarketOrder     bool              `json:"is_market_order"`
}

type EngineOpenOrder struct {
	OrderID            uint64          `json:"order_id"`
	AccountID          common.Hash     `json:"account_id"`
	MarketID           uint64          `json:"market_id"`
	Side               Side            `json:"side"`
	CreateTimestamp    int64           `json:"create_timestamp"`
	Amount             string          `json:"amount"`
	Price              string          `json:"price"`
	Status             OrderStatus     `json:"status"`
	MatchedQuoteAmount string          `json:"matched_quote_amount"`
	MatchedBaseAmount  string          `json:"matched_base_amount"`
	QuoteFee           string          `json:"quote_fee"`
	Nonce              uint64          `json:"nonce"`
	Expiration         OrderExpiration `json:"expiration"`
	IsTriggered        bool            `json:"is_triggered"`
	Signature          string          `json:"signature"`
	Signer             common.Address  `json:"signer"`
	HasDependency      bool            `json:"has_dependency"`
	Source             OrderSource     `json:"source"`
	SystemFeeTier      FeeTier         `json:"system_fee_tier"`
	BrokerFeeTier      *FeeTier        `json:"broker_fee_tier"`
	Tag                OrderTag        `json:"tag"`
}

type ClientOpenOrder struct {
	OrderID            uint64
	AccountID          common.Hash
	MarketID           uint64
	Side               Side
	CreateTimestamp    int64
	Amount             string
	Price              string
	Status             OrderStatus
	MatchedQuoteAmount string
	MatchedBaseAmount  string
	QuoteFee           string
	Nonce              uint64
	Expiration         OrderExpiration
	IsTriggered        bool
	HasDependency      bool
	Source             OrderSource
	Tag                OrderTag
}

// =============================
// Markets
// =============================

type EngineMarketConfig struct {
	ID                uint64       `json:"id"`
	Ticker            string       `json:"ticker"`
	MinVolume         string       `json:"min_volume"`
	TickSize          string       `json:"tick_size"`
	StepSize          string       `json:"step_size"`
	InitialMargin     string       `json:"initial_margin"`
	MaintenanceMargin string       `json:"maintenance_margin"`
	IsOpen            bool         `json:"is_open"`
	NextOpen          *int64       `json:"next_open"`
	NextClose         *int64       `json:"next_close"`
	InsuranceID       *common.Hash `json:"insurance_id"`
	PriceCap          string       `json:"price_cap"`
	PriceFloor        string       `json:"price_floor"`
	AvailableFrom     int64        `json:"available_from"`
	UnavailableAfter  *int64       `json:"unavailable_after"`
	PythID            string       `json:"pyth_id"`
}

type ClientMarketConfig struct {
	ID                uint64
	Ticker            string
	MinVolume         string
	TickSize          string
	StepSize          string
	InitialMargin     string
	MaintenanceMargin string
	IsOpen            bool
	NextOpen          *int64
	NextClose         *int64
	InsuranceID       *common.Hash
	PriceCap          string
	PriceFloor        string
	AvailableFrom     int64
	UnavailableAfter  *int64
}

// TradableAt reports whether the market accepts orders at nowMillis.
func (m ClientMarketConfig) TradableAt(nowMillis int64) bool {
	if !m.IsOpen || nowMillis < m.AvailableFrom {
		return false
	}
	return m.UnavailableAfter == nil || nowMillis < *m.UnavailableAfter
}

type EngineMarketState struct {
	ID                uint64 `json:"id"`
	OpenInterest      string `json:"open_interest"`
	CumulativeFunding string `json:"cumulative_funding"`
	AvailableSettle   string `json:"available_settle"`
	NextFundingRate   string `json:"next_funding_rate"`
	MarkPrice         string `json:"mark_price"`
}

type ClientMarketState struct {
	ID                uint64
	OpenInterest      string
	CumulativeFunding string
	AvailableSettle   string
	NextFundingRate   string
}

// OrderbookItem is (price, amount, cumulative amount).
type OrderbookItem [3]string

type EngineOrderbook struct {
	MarketID uint64          `json:"market_id"`
	Asks     []OrderbookItem `json:"asks"`
	Bids     []OrderbookItem `json:"bids"`
}

type ClientOrderbook struct {
	MarketID uint64
	Asks     []OrderbookItem
	Bids     []OrderbookItem
}

type EngineMarketPrice struct {
	IndexPrice     string  `json:"index_price"`
	MarkPrice      string  `json:"mark_price"`
	LastPrice      *string `json:"last_price"`
	IndexPriceTime int64   `json:"index_price_time"`
}

type ClientMarketPrice struct {
	IndexPrice string
	MarkPrice  string
	LastPrice  *string
}

// =============================
// Accounts
// =============================

type EnginePosition struct {
	BaseAmount            string `json:"base_amount"`
	QuoteAmount           string `json:"quote_amount"`
	LastCumulativeFunding string `json:"last_cumulative_funding"`
	FrozenInBidOrder      string `json:"frozen_in_bid_order"`
	FrozenInAskOrder      string `json:"frozen_in_ask_order"`
	UnsettledPnl          string `json:"unsettled_pnl"`
}

type ClientPosition struct {
	MarketID              uint64
	BaseAmount            string
	QuoteAmount           string
	LastCumulativeFunding string
	FrozenInBidOrder      string
	FrozenInAskOrder      string
	UnsettledPnl          string
}

type EngineAccount struct {
	Positions            map[uint64]EnginePosition `json:"positions"`
	Collateral           string                    `json:"collateral"`
	IsInLiquidationQueue bool                      `json:"is_in_liquidation_queue"`
}

type ClientAccount struct {
	Positions            []ClientPosition
	Collateral           string
	IsInLiquidationQueue bool
}
