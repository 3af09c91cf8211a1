package client

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"perpclient/logger"
	"perpclient/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/samber/mo"
)

const (
	TestnetRPCURL = "https://testnet-rpc.foundation.network/perpetual"

	// DefaultConfigMethod and TradingConfigMethod name the same venue config
	// on different engine deployments.
	DefaultConfigMethod = "core_get_config"
	TradingConfigMethod = "core_get_trading_config"

	DefaultDecimals int32 = 18
	DefaultChainID  int64 = 1
)

// RPC method names.
const (
	methodGetUserNonce      = "core_get_user_nonce"
	methodQueryAccount      = "core_query_account"
	methodQueryPrice        = "core_query_price"
	methodAddTradingKey     = "ob_add_trading_key"
	methodGetTradingKey     = "ob_get_trading_key"
	methodPlaceLimit        = "ob_place_limit"
	methodCancel            = "ob_cancel"
	methodQueryOrder        = "ob_query_order"
	methodQueryUserOrders   = "ob_query_user_orders"
	methodQueryOpenMarkets  = "ob_query_open_markets"
	methodQueryMarketsState = "ob_query_markets_state"
	methodQueryDepth        = "ob_query_depth"
)

type engineOptions struct {
	logger       *logger.Logger
	metrics      *metrics.Collector
	httpClient   *http.Client
	headers      map[string]string
	auth         HeaderAuth
	transport    Transport
	configMethod string
	decimals     int32
	chainID      int64
	config       *TradingConfig
}

type EngineOption func(*engineOptions)

func WithLogger(l *logger.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = l }
}

func WithMetrics(m *metrics.Collector) EngineOption {
	return func(o *engineOptions) { o.metrics = m }
}

// WithHTTPClient sets the http.Client used for http:// and https:// URLs.
func WithHTTPClient(hc *http.Client) EngineOption {
	return func(o *engineOptions) { o.httpClient = hc }
}

// WithHeaders adds headers to every HTTP request or to the WebSocket handshake.
func WithHeaders(h map[string]string) EngineOption {
	return func(o *engineOptions) { o.headers = h }
}

// WithAuth applies credentials to every HTTP request or to the WebSocket handshake.
func WithAuth(auth HeaderAuth) EngineOption {
	return func(o *engineOptions) { o.auth = auth }
}

// WithTransport bypasses URL based transport selection.
func WithTransport(t Transport) EngineOption {
	return func(o *engineOptions) { o.transport = t }
}

// WithConfigMethod selects the RPC method that returns the venue config.
func WithConfigMethod(method string) EngineOption {
	return func(o *engineOptions) { o.configMethod = method }
}

// WithDecimals sets the fixed-point scale of signed prices and amounts.
func WithDecimals(decimals int32) EngineOption {
	return func(o *engineOptions) { o.decimals = decimals }
}

// WithChainID pins the EIP-712 chain id instead of reading it from the venue config.
func WithChainID(chainID int64) EngineOption {
	return func(o *engineOptions) { o.chainID = chainID }
}

// WithTradingConfig seeds the config snapshot so no fetch is needed.
func WithTradingConfig(cfg TradingConfig) EngineOption {
	return func(o *engineOptions) { o.config = &cfg }
}

// Engine issues one JSON-RPC call per engine operation and signs the
// Order, Cancel and LinkSigner structs.
type Engine struct {
	transport    Transport
	logger       *logger.Logger
	metrics      *metrics.Collector
	configMethod string
	decimals     int32
	chainID      int64

	config atomic.Pointer[TradingConfig]
}

// NewEngine connects over WebSocket for ws:// and wss:// URLs and over HTTP
// for everything else.
func NewEngine(rpcURL string, opts ...EngineOption) *Engine {
	o := engineOptions{
		configMethod: DefaultConfigMethod,
		decimals:     DefaultDecimals,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}

	transport := o.transport
	if transport == nil {
		c := NewClient(rpcURL, o.logger)
		c.SetHTTPClient(o.httpClient)
		c.SetHeaders(o.headers)
		c.SetAuth(o.auth)
		transport = c
	}

	e := &Engine{
		transport:    transport,
		logger:       o.logger,
		metrics:      o.metrics,
		configMethod: o.configMethod,
		decimals:     o.decimals,
		chainID:      o.chainID,
	}
	if o.config != nil {
		e.config.Store(o.config)
	}
	return e
}

func (e *Engine) Close() error {
	return e.transport.Close()
}

func (e *Engine) call(ctx context.Context, result any, method string, params ...any) error {
	start := time.Now()
	err := e.transport.Call(ctx, result, method, params...)
	elapsed := time.Since(start)

	e.metrics.ObserveRPC(method, elapsed, err)
	if err != nil {
		e.logger.Error("rpc_failed", "method", method, "elapsed", elapsed, "err", err)
		return err
	}
	e.logger.Debug("rpc_call", "method", method, "elapsed", elapsed)
	return nil
}

// =============================
// Venue config
// =============================

// Config returns the cached venue config, fetching it on first use.
// Concurrent first calls may each fetch; the last one stored wins.
func (e *Engine) Config(ctx context.Context) (*TradingConfig, error) {
	if cfg := e.config.Load(); cfg != nil {
		return cfg, nil
	}
	return e.RefreshConfig(ctx)
}

// RefreshConfig fetches the venue config and replaces the cached snapshot.
func (e *Engine) RefreshConfig(ctx context.Context) (*TradingConfig, error) {
	var cfg TradingConfig
	if err := e.call(ctx, &cfg, e.configMethod); err != nil {
		return nil, err
	}
	e.config.Store(&cfg)
	e.metrics.RecordConfigLoad()
	e.logger.Info("config_loaded",
		"method", e.configMethod,
		"chain_id", cfg.ChainID,
		"endpoint", cfg.Addresses.Endpoint.Hex(),
		"offchain_book", cfg.Addresses.OffchainBook.Hex(),
	)
	return &cfg, nil
}

// SetConfig replaces the cached snapshot without a fetch.
func (e *Engine) SetConfig(cfg TradingConfig) {
	e.config.Store(&cfg)
}

// domain resolves the signing domain. The chain id comes from WithChainID or
// the venue config; an override only replaces the verifying contract.
func (e *Engine) domain(ctx context.Context, override mo.Option[common.Address], pick func(AddressConfig) common.Address) (Domain, error) {
	verifying, hasOverride := override.Get()
	chainID := e.chainID
	if chainID != 0 && hasOverride {
		return Domain{ChainID: chainID, VerifyingContract: verifying}, nil
	}

	cfg, err := e.Config(ctx)
	if err != nil {
		return Domain{}, err
	}
	if !hasOverride {
		verifying = pick(cfg.Addresses)
	}
	if chainID == 0 {
		chainID = cfg.ChainID
	}
	if chainID == 0 {
		chainID = DefaultChainID
	}
	return Domain{ChainID: chainID, VerifyingContract: verifying}, nil
}

func offchainBookAddr(a AddressConfig) common.Address { return a.OffchainBook }
func endpointAddr(a AddressConfig) common.Address { return a.Endpoint }

func (e *Engine) sign(ctx context.Context, signer TypedDataSigner, data apitypes.TypedData) (hexutil.Bytes, error) {
	if signer == nil {
		return nil, ErrNilSigner
	}
	signature, err := signer.SignTypedData(ctx, data)
	e.metrics.RecordSignature(data.PrimaryType, err)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", data.PrimaryType, err)
	}
	return signature, nil
}

// =============================
// Signing
// =============================

func (e *Engine) SignPlaceOrder(ctx context.Context, signer TypedDataSigner, payload EnginePlaceOrder, verifyingAddr mo.Option[common.Address]) (hexutil.Bytes, error) {
	domain, err := e.domain(ctx, verifyingAddr, offchainBookAddr)
	if err != nil {
		return nil, err
	}
	data, err := OrderTypedData(payload, domain, e.decimals)
	if err != nil {
		return nil, err
	}
	return e.sign(ctx, signer, data)
}

func (e *Engine) SignCancelOrder(ctx context.Context, signer TypedDataSigner, payload EngineCancelOrder, verifyingAddr mo.Option[common.Address]) (hexutil.Bytes, error) {
	domain, err := e.domain(ctx, verifyingAddr, offchainBookAddr)
	if err != nil {
		return nil, err
	}
	data, err := CancelTypedData(payload, domain)
	if err != nil {
		return nil, err
	}
	return e.sign(ctx, signer, data)
}

func (e *Engine) SignAddTradingKey(ctx context.Context, signer TypedDataSigner, params AddTradingKey, verifyingAddr mo.Option[common.Address]) (hexutil.Bytes, error) {
	domain, err := e.domain(ctx, verifyingAddr, endpointAddr)
	if err != nil {
		return nil, err
	}
	return e.sign(ctx, signer, LinkSignerTypedData(params, domain))
}

// =============================
// Writes
// =============================

func (e *Engine) AddTradingKey(ctx context.Context, params AddTradingKey, signature hexutil.Bytes) error {
	link := tradingKeyLink{AccountID: params.AccountID, Signer: params.Signer}
	return e.call(ctx, nil, methodAddTradingKey, link, params.Nonce, signature)
}

// PlaceOrder submits a signed order and returns the id the engine assigned.
func (e *Engine) PlaceOrder(ctx context.Context, payload EnginePlaceOrder, signature hexutil.Bytes) (uint64, error) {
	var orderID uint64
	if err := e.call(ctx, &orderID, methodPlaceLimit, payload, signature); err != nil {
		return 0, err
	}
	return orderID, nil
}

// CancelOrder submits a signed cancel and returns the canceled order id.
func (e *Engine) CancelOrder(ctx context.Context, payload EngineCancelOrder, signature hexutil.Bytes) (uint64, error) {
	var orderID uint64
	if err := e.call(ctx, &orderID, methodCancel, payload, signature); err != nil {
		return 0, err
	}
	return orderID, nil
}

// =============================
// Reads
// =============================

func (e *Engine) GetUserNonce(ctx context.Context, address common.Address) (uint64, error) {
	var nonce uint64
	if err := e.call(ctx, &nonce, methodGetUserNonce, address); err != nil {
		return 0, err
	}
	return nonce, nil
}

// GetTradingKey returns nil when no key is linked to the account.
func (e *Engine) GetTradingKey(ctx context.Context, accountID common.Hash) (*common.Address, error) {
	var key *common.Address
	if err := e.call(ctx, &key, methodGetTradingKey, accountID); err != nil {
		return nil, err
	}
	return key, nil
}

// GetOpenOrderById returns nil when the engine has no such order.
func (e *Engine) GetOpenOrderById(ctx context.Context, marketID, orderID uint64) (*EngineOpenOrder, error) {
	var order *EngineOpenOrder
	if err := e.call(ctx, &order, methodQueryOrder, marketID, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

func (e *Engine) GetOpenOrdersByAccount(ctx context.Context, marketID uint64, accountID common.Hash) ([]EngineOpenOrder, error) {
	var orders []EngineOpenOrder
	if err := e.call(ctx, &orders, methodQueryUserOrders, marketID, accountID); err != nil {
		return nil, err
	}
	return orders, nil
}

func (e *Engine) GetAccount(ctx context.Context, accountID common.Hash) (*EngineAccount, error) {
	var account EngineAccount
	if err := e.call(ctx, &account, methodQueryAccount, accountID); err != nil {
		return nil, err
	}
	return &account, nil
}

func (e *Engine) GetMarketConfigs(ctx context.Context) ([]EngineMarketConfig, error) {
	var markets []EngineMarketConfig
	if err := e.call(ctx, &markets, methodQueryOpenMarkets); err != nil {
		return nil, err
	}
	return markets, nil
}

func (e *Engine) GetMarketStates(ctx context.Context) ([]EngineMarketState, error) {
	var states []EngineMarketState
	if err := e.call(ctx, &states, methodQueryMarketsState); err != nil {
		return nil, err
	}
	return states, nil
}

func (e *Engine) GetMarketPrice(ctx context.Context, marketID uint64) (*EngineMarketPrice, error) {
	var price EngineMarketPrice
	if err := e.call(ctx, &price, methodQueryPrice, marketID); err != nil {
		return nil, err
	}
	return &price, nil
}

// GetOrderbook returns nil when the engine has no book for the market.
func (e *Engine) GetOrderbook(ctx context.Context, marketID uint64, take int) (*EngineOrderbook, error) {
	var book *EngineOrderbook
	if err := e.call(ctx, &book, methodQueryDepth, marketID, take); err != nil {
		return nil, err
	}
	return book, nil
}
