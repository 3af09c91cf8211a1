package client

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
)

// DefaultOrderbookDepth is used by GetOrderbook when take is zero.
const DefaultOrderbookDepth = 1000

// PerpClient is the application-facing API. It maps client shapes to engine
// payloads, lets the Engine sign and send them, and maps responses back.
type PerpClient struct {
	engine *Engine
}

func NewPerpClient(rpcURL string, opts ...EngineOption) *PerpClient {
	return NewPerpClientWithEngine(NewEngine(rpcURL, opts...))
}

func NewPerpClientWithEngine(engine *Engine) *PerpClient {
	return &PerpClient{engine: engine}
}

func (c *PerpClient) Engine() *Engine {
	return c.engine
}

func (c *PerpClient) Close() error {
	return c.engine.Close()
}

func (c *PerpClient) Config(ctx context.Context) (*TradingConfig, error) {
	return c.engine.Config(ctx)
}

func (c *PerpClient) RefreshConfig(ctx context.Context) (*TradingConfig, error) {
	return c.engine.RefreshConfig(ctx)
}

func (c *PerpClient) SetConfig(cfg TradingConfig) {
	c.engine.SetConfig(cfg)
}

func (c *PerpClient) GetUserNonce(ctx context.Context, address common.Address) (uint64, error) {
	return c.engine.GetUserNonce(ctx, address)
}

// AddTradingKey links signer as a trading key of accountID. The signer's
// current nonce is fetched from the engine first.
func (c *PerpClient) AddTradingKey(ctx context.Context, signer TypedDataSigner, accountID common.Hash, verifyingAddr mo.Option[common.Address]) error {
	if signer == nil {
		return ErrNilSigner
	}

	nonce, err := c.GetUserNonce(ctx, signer.Address())
	if err != nil {
		return err
	}

	params := AddTradingKey{
		AccountID: accountID,
		Signer:    signer.Address(),
		Nonce:     nonce,
	}

	signature, err := c.engine.SignAddTradingKey(ctx, signer, params, verifyingAddr)
	if err != nil {
		return err
	}

	return c.engine.AddTradingKey(ctx, params, signature)
}

func (c *PerpClient) GetTradingKey(ctx context.Context, accountID common.Hash) (*common.Address, error) {
	return c.engine.GetTradingKey(ctx, accountID)
}

// PlaceOrder signs and submits an order, returning the engine's order id.
func (c *PerpClient) PlaceOrder(ctx context.Context, signer TypedDataSigner, params ClientPlaceOrder) (uint64, error) {
	payload := BuildEnginePlaceOrder(params)

	signature, err := c.engine.SignPlaceOrder(ctx, signer, payload, params.VerifyingAddr)
	if err != nil {
		return 0, err
	}

	return c.engine.PlaceOrder(ctx, payload, signature)
}

// CancelOrder signs and submits a cancel, returning the canceled order id.
func (c *PerpClient) CancelOrder(ctx context.Context, signer TypedDataSigner, params ClientCancelOrder) (uint64, error) {
	payload := BuildEngineCancelOrder(params)

	signature, err := c.engine.SignCancelOrder(ctx, signer, payload, params.VerifyingAddr)
	if err != nil {
		return 0, err
	}

	return c.engine.CancelOrder(ctx, payload, signature)
}

// GetOpenOrderById returns nil, nil when the order does not exist.
func (c *PerpClient) GetOpenOrderById(ctx context.Context, marketID, orderID uint64) (*ClientOpenOrder, error) {
	order, err := c.engine.GetOpenOrderById(ctx, marketID, orderID)
	if err != nil || order == nil {
		return nil, err
	}

	out := BuildClientOpenOrder(*order)
	return &out, nil
}

func (c *PerpClient) GetOpenOrdersByAccount(ctx context.Context, marketID uint64, accountID common.Hash) ([]ClientOpenOrder, error) {
	orders, err := c.engine.GetOpenOrdersByAccount(ctx, marketID, accountID)
	if err != nil {
		return nil, err
	}
	return BuildClientOpenOrders(orders), nil
}

func (c *PerpClient) GetAccount(ctx context.Context, accountID common.Hash) (*ClientAccount, error) {
	account, err := c.engine.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := BuildClientAccount(*account)
	return &out, nil
}

func (c *PerpClient) GetMarketConfigs(ctx context.Context) ([]ClientMarketConfig, error) {
	markets, err := c.engine.GetMarketConfigs(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ClientMarketConfig, 0, len(markets))
	for _, m := range markets {
		out = append(out, BuildClientMarketConfig(m))
	}
	return out, nil
}

func (c *PerpClient) GetMarketStates(ctx context.Context) ([]ClientMarketState, error) {
	states, err := c.engine.GetMarketStates(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ClientMarketState, 0, len(states))
	for _, s := range states {
		out = append(out, BuildClientMarketState(s))
	}
	return out, nil
}

func (c *PerpClient) GetMarketPrice(ctx context.Context, marketID uint64) (*ClientMarketPrice, error) {
	price, err := c.engine.GetMarketPrice(ctx, marketID)
	if err != nil {
		return nil, err
	}

	out := BuildClientMarketPrice(*price)
	return &out, nil
}

// GetOrderbook returns up to take levels per side, DefaultOrderbookDepth
// when take is zero, and nil, nil when the engine has no book.
func (c *PerpClient) GetOrderbook(ctx context.Context, marketID uint64, take int) (*ClientOrderbook, error) {
	if take <= 0 {
		take = DefaultOrderbookDepth
	}

	book, err := c.engine.GetOrderbook(ctx, marketID, take)
	if err != nil || book == nil {
		return nil, err
	}

	out := BuildClientOrderbook(*book)
	return &out, nil
}
