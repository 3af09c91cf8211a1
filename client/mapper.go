package client

import (
	"cmp"
	"slices"
	"strconv"

	"perpclient/utils"
)

// BuildEnginePlaceOrder converts a client order into the engine payload,
// filling defaults. Price and amount are passed through untouched.
func BuildEnginePlaceOrder(params ClientPlaceOrder) EnginePlaceOrder {
	nonce := params.Nonce.OrElse("")
	if nonce == "" {
		nonce = strconv.FormatUint(utils.GenerateOrderNonce(), 10)
	}

	tif := params.TimeInForce
	if tif == "" {
		tif = TimeInForceDefault
	}

	stb := params.SelfTradeBehavior
	if stb == "" {
		stb = SelfTradeCancelProvide
	}

	var expiresAt *uint64
	if ts, ok := params.ExpiresAt.Get(); ok {
		expiresAt = &ts
	}

	return EnginePlaceOrder{
		AccountID:         params.AccountID,
		MarketID:          params.MarketID,
		Side:              params.Side,
		Price:             params.Price,
		Amount:            params.Amount,
		TimeInForce:       tif,
		ReduceOnly:        params.ReduceOnly,
		IsMarketOrder:     params.IsMarketOrder,
		SelfTradeBehavior: stb,
		Nonce:             nonce,
		ExpiresAt:         expiresAt,
		TriggerCondition:  params.TriggerCondition.OrElse(nil),
	}
}

func BuildEngineCancelOrder(params ClientCancelOrder) EngineCancelOrder {
	nonce := params.Nonce.OrElse("")
	if nonce == "" {
		nonce = strconv.FormatUint(utils.GenerateOrderNonce(), 10)
	}

	return EngineCancelOrder{
		AccountID: params.AccountID,
		MarketID:  params.MarketID,
		OrderID:   params.OrderID,
		Nonce:     nonce,
	}
}

func BuildClientOpenOrder(order EngineOpenOrder) ClientOpenOrder {
	return ClientOpenOrder{
		OrderID:            order.OrderID,
		AccountID:          order.AccountID,
		MarketID:           order.MarketID,
		Side:               order.Side,
		CreateTimestamp:    order.CreateTimestamp,
		Amount:             order.Amount,
		Price:              order.Price,
		Status:             order.Status,
		MatchedQuoteAmount: order.MatchedQuoteAmount,
		MatchedBaseAmount:  order.MatchedBaseAmount,
		QuoteFee:           order.QuoteFee,
		Nonce:              order.Nonce,
		Expiration:         order.Expiration,
		IsTriggered:        order.IsTriggered,
		HasDependency:      order.HasDependency,
		Source:             order.Source,
		Tag:                order.Tag,
	}
}

func BuildClientOpenOrders(orders []EngineOpenOrder) []ClientOpenOrder {
	out := make([]ClientOpenOrder, 0, len(orders))
	for _, order := range orders {
		out = append(out, BuildClientOpenOrder(order))
	}
	return out
}

func BuildClientMarketConfig(market EngineMarketConfig) ClientMarketConfig {
	return ClientMarketConfig{
		ID:                market.ID,
		Ticker:            market.Ticker,
		MinVolume:         market.MinVolume,
		TickSize:          market.TickSize,
		StepSize:          market.StepSize,
		InitialMargin:     market.InitialMargin,
		MaintenanceMargin: market.MaintenanceMargin,
		IsOpen:            market.IsOpen,
		NextOpen:          market.NextOpen,
		NextClose:         market.NextClose,
		InsuranceID:       market.InsuranceID,
		PriceCap:          market.PriceCap,
		PriceFloor:        market.PriceFloor,
		AvailableFrom:     market.AvailableFrom,
		UnavailableAfter:  market.UnavailableAfter,
	}
}

func BuildClientMarketState(state EngineMarketState) ClientMarketState {
	return ClientMarketState{
		ID:                state.ID,
		OpenInterest:      state.OpenInterest,
		CumulativeFunding: state.CumulativeFunding,
		AvailableSettle:   state.AvailableSettle,
		NextFundingRate:   state.NextFundingRate,
	}
}

func BuildClientOrderbook(book EngineOrderbook) ClientOrderbook {
	return ClientOrderbook{
		MarketID: book.MarketID,
		Asks:     book.Asks,
		Bids:     book.Bids,
	}
}

func BuildClientMarketPrice(price EngineMarketPrice) ClientMarketPrice {
	return ClientMarketPrice{
		IndexPrice: price.IndexPrice,
		MarkPrice:  price.MarkPrice,
		LastPrice:  price.LastPrice,
	}
}

// BuildClientAccount flattens the per-market position map into a list
// ordered by market id.
func BuildClientAccount(account EngineAccount) ClientAccount {
	positions := make([]ClientPosition, 0, len(account.Positions))
	for marketID, p := range account.Positions {
		positions = append(positions, ClientPosition{
			MarketID:              marketID,
			BaseAmount:            p.BaseAmount,
			QuoteAmount:           p.QuoteAmount,
			LastCumulativeFunding: p.LastCumulativeFunding,
			FrozenInBidOrder:      p.FrozenInBidOrder,
			FrozenInAskOrder:      p.FrozenInAskOrder,
			UnsettledPnl:          p.UnsettledPnl,
		})
	}
	slices.SortFunc(positions, func(a, b ClientPosition) int {
		return cmp.Compare(a.MarketID, b.MarketID)
	})

	return ClientAccount{
		Positions:            positions,
		Collateral:           account.Collateral,
		IsInLiquidationQueue: account.IsInLiquidationQueue,
	}
}
