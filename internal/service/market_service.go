package service

import (
	"context"
	"strconv"

	"botdeck/backend/internal/config"
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/redis"
)

// Heatmap metric rows, in display order
var heatmapMetrics = []string{"price_change_pct", "quote_volume", "last_price"}

// MarketService serves public market data with short-lived Redis caching
type MarketService struct {
	binanceClient       *binance.Client
	redis               *redis.Client
	notificationService *NotificationService
	cfg                 config.MarketConfig
	log                 *logger.Logger
}

func NewMarketService(
	binanceClient *binance.Client,
	redisClient *redis.Client,
	notificationService *NotificationService,
	cfg config.MarketConfig,
) *MarketService {
	return &MarketService{
		binanceClient:       binanceClient,
		redis:               redisClient,
		notificationService: notificationService,
		cfg:                 cfg,
		log:                 logger.GetLogger(),
	}
}

// GetPrice returns the current price of one symbol, cached briefly
func (s *MarketService) GetPrice(ctx context.Context, symbol string) (*model.SymbolPrice, error) {
	cacheKey := redis.CachePriceKey(symbol)
	if cached, err := s.redis.Get(ctx, cacheKey); err == nil {
		if price, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return &model.SymbolPrice{Symbol: symbol, Price: price}, nil
		}
	}

	price, err := s.binanceClient.GetPrice(ctx, symbol)
	if err != nil {
		if apiErr, ok := err.(*binance.APIError); ok && apiErr.Code == -1121 {
			return nil, util.ErrNotFound("Unknown symbol: " + symbol)
		}
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to fetch price", err.Error())
	}

	if err := s.redis.Set(ctx, cacheKey, strconv.FormatFloat(price, 'f', -1, 64), s.cfg.PriceCacheTTL); err != nil {
		s.log.Warnf("Failed to cache price for %s: %v", symbol, err)
	}

	sp := &model.SymbolPrice{Symbol: symbol, Price: price}
	s.notificationService.NotifyPriceUpdate(ctx, sp)
	return sp, nil
}

// GetPrices returns current prices for a set of symbols, or every traded
// symbol when the set is empty
func (s *MarketService) GetPrices(ctx context.Context, symbols []string) ([]*model.SymbolPrice, error) {
	all, err := s.binanceClient.GetPrices(ctx)
	if err != nil {
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to fetch prices", err.Error())
	}

	if len(symbols) == 0 {
		prices := make([]*model.SymbolPrice, 0, len(all))
		for sym, price := range all {
			prices = append(prices, &model.SymbolPrice{Symbol: sym, Price: price})
		}
		return prices, nil
	}

	prices := make([]*model.SymbolPrice, 0, len(symbols))
	for _, sym := range symbols {
		price, ok := all[sym]
		if !ok {
			return nil, util.ErrNotFound("Unknown symbol: " + sym)
		}
		prices = append(prices, &model.SymbolPrice{Symbol: sym, Price: price})
	}
	return prices, nil
}

// GetKlines returns historical candles for a symbol
func (s *MarketService) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64, limit int) (*model.KlinesResponse, error) {
	if limit <= 0 || limit > util.MaxKlinesPerRequest {
		limit = 500
	}

	klines, err := s.binanceClient.GetKlines(ctx, symbol, interval, startTime, endTime, limit)
	if err != nil {
		if apiErr, ok := err.(*binance.APIError); ok && apiErr.Code == -1121 {
			return nil, util.ErrNotFound("Unknown symbol: " + symbol)
		}
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to fetch klines", err.Error())
	}

	return &model.KlinesResponse{
		Symbol:   symbol,
		Interval: interval,
		Klines:   klines,
	}, nil
}

// GetHeatmap projects 24h tickers of the tracked symbol set into the grid
// shape the dashboard heatmap consumes
func (s *MarketService) GetHeatmap(ctx context.Context) (*model.HeatmapResponse, error) {
	tickers, err := s.binanceClient.GetTicker24h(ctx, s.cfg.HeatmapSymbols)
	if err != nil {
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Failed to fetch 24h tickers", err.Error())
	}

	data := make([]model.HeatmapPoint, 0, len(tickers)*len(heatmapMetrics))
	xLabels := make([]string, 0, len(tickers))

	for _, t := range tickers {
		xLabels = append(xLabels, t.Symbol)

		changePct, _ := strconv.ParseFloat(t.PriceChangePercent, 64)
		quoteVolume, _ := strconv.ParseFloat(t.QuoteVolume, 64)
		lastPrice, _ := strconv.ParseFloat(t.LastPrice, 64)

		data = append(data,
			model.HeatmapPoint{X: t.Symbol, Y: "price_change_pct", V: changePct},
			model.HeatmapPoint{X: t.Symbol, Y: "quote_volume", V: quoteVolume},
			model.HeatmapPoint{X: t.Symbol, Y: "last_price", V: lastPrice},
		)
	}

	return &model.HeatmapResponse{
		Data:    data,
		XLabels: xLabels,
		YLabels: heatmapMetrics,
	}, nil
}
