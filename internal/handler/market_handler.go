package handler

import (
	"strconv"
	"strings"

	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	marketService *service.MarketService
}

func NewMarketHandler(marketService *service.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// GetPrice handles GET /api/v1/market/price/:symbol
func (h *MarketHandler) GetPrice(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	price, err := h.marketService.GetPrice(c.Request.Context(), symbol)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, price)
}

// GetPrices handles GET /api/v1/market/prices/current?symbols=BTCUSDT,ETHUSDT
func (h *MarketHandler) GetPrices(c *gin.Context) {
	var symbols []string
	if raw := c.Query("symbols"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	prices, err := h.marketService.GetPrices(c.Request.Context(), symbols)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, gin.H{
		"prices": prices,
		"count":  len(prices),
	})
}

// GetKlines handles GET /api/v1/market/klines/:symbol
func (h *MarketHandler) GetKlines(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	interval := c.DefaultQuery("interval", "1h")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	startTime, _ := strconv.ParseInt(c.DefaultQuery("startTime", "0"), 10, 64)
	endTime, _ := strconv.ParseInt(c.DefaultQuery("endTime", "0"), 10, 64)

	klines, err := h.marketService.GetKlines(c.Request.Context(), symbol, interval, startTime, endTime, limit)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, klines)
}

// GetHeatmap handles GET /api/v1/market/heatmap
func (h *MarketHandler) GetHeatmap(c *gin.Context) {
	heatmap, err := h.marketService.GetHeatmap(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, heatmap)
}
