package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"perpclient/client"
	"perpclient/config"
	"perpclient/logger"
	"perpclient/metrics"
	"perpclient/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/mo"
)

func main() {
	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.NewLogger().Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	log := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Info("metrics_server_starting", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error("metrics_server_failed", "error", err)
			}
		}()
	}

	opts := []client.EngineOption{
		client.WithLogger(log),
		client.WithMetrics(collector),
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithConfigMethod(cfg.ConfigMethod),
		client.WithDecimals(cfg.Decimals),
	}
	if cfg.ChainID != 0 {
		opts = append(opts, client.WithChainID(cfg.ChainID))
	}
	if cfg.APIKey != "" {
		opts = append(opts, client.WithAuth(client.APIKeyAuth{Header: cfg.APIKeyHeader, Key: cfg.APIKey}))
	}
	perp := client.NewPerpClient(cfg.RPCURL, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, perp, cfg, log)
	stop()
	_ = perp.Close()

	if err != nil {
		log.Error("demo_failed", "error", err)
		os.Exit(1)
	}
}

type demo struct {
	perp      *client.PerpClient
	cfg       *config.Config
	log       *logger.Logger
	signer    client.TypedDataSigner
	accountID common.Hash
}

func run(ctx context.Context, perp *client.PerpClient, cfg *config.Config, log *logger.Logger) error {
	d := &demo{perp: perp, cfg: cfg, log: log}

	if cfg.PlaceOrders {
		signer, err := client.NewPrivateKeySigner(cfg.PrivateKey)
		if err != nil {
			return err
		}
		d.signer = signer
		d.accountID = common.HexToHash(cfg.AccountID)

		if err := d.ensureTradingKey(ctx); err != nil {
			return err
		}
	}

	markets, err := perp.GetMarketConfigs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list markets: %w", err)
	}
	log.Info("markets_loaded", "count", len(markets))

	now := time.Now().UnixMilli()
	for _, market := range markets {
		if !market.TradableAt(now) {
			log.Debug("market_skipped", "market", market.ID, "ticker", market.Ticker)
			continue
		}
		if err := d.runMarket(ctx, market); err != nil {
			return fmt.Errorf("market %d: %w", market.ID, err)
		}
	}

	states, err := perp.GetMarketStates(ctx)
	if err != nil {
		return err
	}
	for _, s := range states {
		log.Info("market_state",
			"market", s.ID,
			"open_interest", s.OpenInterest,
			"cumulative_funding", s.CumulativeFunding,
			"next_funding_rate", s.NextFundingRate,
		)
	}

	if d.accountID == (common.Hash{}) && cfg.AccountID != "" {
		d.accountID = common.HexToHash(cfg.AccountID)
	}
	if d.accountID != (common.Hash{}) {
		account, err := perp.GetAccount(ctx, d.accountID)
		if err != nil {
			return err
		}
		log.Info("account",
			"collateral", account.Collateral,
			"positions", len(account.Positions),
			"in_liquidation_queue", account.IsInLiquidationQueue,
		)
		for _, p := range account.Positions {
			log.Info("position", "market", p.MarketID, "base", p.BaseAmount, "quote", p.QuoteAmount, "unsettled_pnl", p.UnsettledPnl)
		}
	}

	return nil
}

// ensureTradingKey links the demo signer to the account unless it already is.
func (d *demo) ensureTradingKey(ctx context.Context) error {
	linked, err := d.perp.GetTradingKey(ctx, d.accountID)
	if err != nil {
		return err
	}
	if linked != nil && *linked == d.signer.Address() {
		return nil
	}

	d.log.Info("trading_key_linking", "account", d.accountID.Hex(), "signer", d.signer.Address().Hex())
	return d.perp.AddTradingKey(ctx, d.signer, d.accountID, mo.None[common.Address]())
}

func (d *demo) runMarket(ctx context.Context, market client.ClientMarketConfig) error {
	price, err := d.perp.GetMarketPrice(ctx, market.ID)
	if err != nil {
		return err
	}
	d.log.Info("market_price", "market", market.ID, "ticker", market.Ticker, "index", price.IndexPrice, "mark", price.MarkPrice)

	var placed []uint64
	if d.signer != nil {
		orders, err := quoteAroundIndex(d.accountID, market, price.IndexPrice, d.cfg.Decimals)
		if err != nil {
			return err
		}
		placed = d.placeAll(ctx, orders)

		open, err := d.perp.GetOpenOrdersByAccount(ctx, market.ID, d.accountID)
		if err != nil {
			return err
		}
		for _, o := range open {
			d.log.Info("open_order", "id", o.OrderID, "side", o.Side, "price", o.Price, "amount", o.Amount, "status", o.Status)
		}
	}

	book, err := d.perp.GetOrderbook(ctx, market.ID, d.cfg.BookDepth)
	if err != nil {
		return err
	}
	if book != nil {
		d.log.Info("orderbook", "market", book.MarketID, "asks", len(book.Asks), "bids", len(book.Bids))
		if len(book.Asks) > 0 {
			d.log.Info("best_ask", "price", book.Asks[0][0], "amount", book.Asks[0][1])
		}
		if len(book.Bids) > 0 {
			d.log.Info("best_bid", "price", book.Bids[0][0], "amount", book.Bids[0][1])
		}
	}

	for _, orderID := range placed {
		order, err := d.perp.GetOpenOrderById(ctx, market.ID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			d.log.Info("order_not_open", "id", orderID)
			continue
		}

		canceled, err := d.perp.CancelOrder(ctx, d.signer, client.ClientCancelOrder{
			AccountID: d.accountID,
			MarketID:  market.ID,
			OrderID:   strconv.FormatUint(orderID, 10),
		})
		if err != nil {
			return err
		}
		d.log.Info("order_canceled", "id", canceled)
	}

	return nil
}

// placeAll submits orders concurrently and returns the ids that were accepted.
func (d *demo) placeAll(ctx context.Context, orders []client.ClientPlaceOrder) []uint64 {
	ids := make([]uint64, len(orders))
	errs := make([]error, len(orders))

	var wg sync.WaitGroup
	for i, order := range orders {
		wg.Add(1)
		go func(i int, order client.ClientPlaceOrder) {
			defer wg.Done()
			ids[i], errs[i] = d.perp.PlaceOrder(ctx, d.signer, order)
		}(i, order)
	}
	wg.Wait()

	var placed []uint64
	for i, err := range errs {
		if err != nil {
			d.log.Error("order_rejected", "side", orders[i].Side, "price", orders[i].Price, "error", err)
			continue
		}
		d.log.Info("order_placed", "id", ids[i], "side", orders[i].Side, "price", orders[i].Price, "amount", orders[i].Amount)
		placed = append(placed, ids[i])
	}
	return placed
}

var (
	errNoIndexPrice = errors.New("market has no index price")
	errInvalidTick  = errors.New("market tick size must be positive")
)

// quoteAroundIndex builds a bid at the index floored to the tick and an ask
// one tick above it, each for ten steps. The math runs on fixed-point
// integers at the signing scale.
func quoteAroundIndex(accountID common.Hash, market client.ClientMarketConfig, indexPrice string, decimals int32) ([]client.ClientPlaceOrder, error) {
	if indexPrice == "" {
		return nil, errNoIndexPrice
	}

	index, err := utils.ParseUnits(indexPrice, decimals)
	if err != nil {
		return nil, err
	}
	tick, err := utils.ParseUnits(market.TickSize, decimals)
	if err != nil {
		return nil, err
	}
	if tick.Sign() <= 0 {
		return nil, errInvalidTick
	}
	step, err := utils.ParseUnits(market.StepSize, decimals)
	if err != nil {
		return nil, err
	}

	buy := new(big.Int).Mul(new(big.Int).Quo(index, tick), tick)
	sell := new(big.Int).Add(buy, tick)
	amount := utils.FormatUnits(new(big.Int).Mul(step, big.NewInt(10)), decimals)

	buyPrice := utils.FormatUnits(buy, decimals)
	sellPrice := utils.FormatUnits(sell, decimals)
	return []client.ClientPlaceOrder{
		{AccountID: accountID, MarketID: market.ID, Side: client.SideAsk, Price: sellPrice, Amount: amount},
		{AccountID: accountID, MarketID: market.ID, Side: client.SideBid, Price: buyPrice, Amount: amount},
	}, nil
}
