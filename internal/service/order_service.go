package service

import (
	"context"
	"strconv"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/logger"
)

// OrderService places and manages manual orders using the user's exchange
// API key
type OrderService struct {
	orderRepo           *repository.OrderRepository
	apiKeyService       *APIKeyService
	binanceClient       *binance.Client
	notificationService *NotificationService
	log                 *logger.Logger
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	apiKeyService *APIKeyService,
	binanceClient *binance.Client,
	notificationService *NotificationService,
) *OrderService {
	return &OrderService{
		orderRepo:           orderRepo,
		apiKeyService:       apiKeyService,
		binanceClient:       binanceClient,
		notificationService: notificationService,
		log:                 logger.GetLogger(),
	}
}

func (s *OrderService) credentials(ctx context.Context, userID string) (binance.Credentials, error) {
	key, err := s.apiKeyService.GetDecrypted(ctx, userID, "")
	if err != nil {
		return binance.Credentials{}, err
	}
	return binance.Credentials{Key: key.Key, Secret: key.Secret}, nil
}

// Create places an order on the exchange and records it. Quantities are
// formatted to the symbol's step size, rounding down.
func (s *OrderService) Create(ctx context.Context, userID string, req *model.OrderRequest) (*model.Order, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Type == binance.OrderTypeMarket && req.Quantity == 0 && req.QuoteOrderQty == 0 {
		return nil, util.ErrValidation("Market orders require quantity or quote_order_qty")
	}
	if req.Type == binance.OrderTypeLimit {
		if req.Quantity == 0 {
			return nil, util.ErrValidation("Limit orders require quantity")
		}
		if req.Price == 0 {
			return nil, util.ErrValidation("Limit orders require price")
		}
	}

	params := binance.CreateOrderParams{
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		QuoteOrderQty: req.QuoteOrderQty,
		Price:         req.Price,
	}

	if req.Quantity > 0 {
		info, err := s.binanceClient.GetSymbolInfo(ctx, req.Symbol)
		if err != nil {
			return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
				"Failed to fetch symbol filters", err.Error())
		}
		quantity, err := strconv.ParseFloat(util.FormatQuantity(req.Quantity, info.StepSize), 64)
		if err != nil || quantity <= 0 {
			return nil, util.ErrValidation("Quantity is below the symbol's step size")
		}
		params.Quantity = quantity

		if req.Type == binance.OrderTypeLimit {
			price, err := strconv.ParseFloat(util.FormatPrice(req.Price, info.TickSize), 64)
			if err != nil || price <= 0 {
				return nil, util.ErrValidation("Price is below the symbol's tick size")
			}
			params.Price = price
		}
	}

	resp, err := s.binanceClient.CreateOrder(ctx, creds, params)
	if err != nil {
		s.log.Errorf("Order placement failed for user %s (%s %s): %v", userID, req.Side, req.Symbol, err)
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Order placement failed", err.Error())
	}

	executedQty, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	order := &model.Order{
		UserID:          userID,
		ExchangeOrderID: resp.OrderID,
		Symbol:          resp.Symbol,
		Side:            resp.Side,
		Type:            resp.Type,
		Status:          resp.Status,
		Price:           req.Price,
		Quantity:        params.Quantity,
		QuoteQuantity:   req.QuoteOrderQty,
		ExecutedQty:     executedQty,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.log.Warnf("Failed to record order %d for user %s: %v", resp.OrderID, userID, err)
	}

	s.notificationService.NotifyOrderUpdate(ctx, userID, order)
	return order, nil
}

// Cancel cancels an open order on the exchange
func (s *OrderService) Cancel(ctx context.Context, userID, symbol string, exchangeOrderID int64) (*binance.OrderResponse, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.binanceClient.CancelOrder(ctx, creds, symbol, exchangeOrderID)
	if err != nil {
		if apiErr, ok := err.(*binance.APIError); ok && apiErr.Code == -2013 {
			return nil, util.NewAppError(404, util.ErrCodeOrderNotFound, "Order does not exist")
		}
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Order cancellation failed", err.Error())
	}
	return resp, nil
}

// GetStatus queries an order's live status on the exchange
func (s *OrderService) GetStatus(ctx context.Context, userID, symbol string, exchangeOrderID int64) (*binance.OrderResponse, error) {
	creds, err := s.credentials(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp, err := s.binanceClient.GetOrder(ctx, creds, symbol, exchangeOrderID)
	if err != nil {
		if apiErr, ok := err.(*binance.APIError); ok && apiErr.Code == -2013 {
			return nil, util.NewAppError(404, util.ErrCodeOrderNotFound, "Order does not exist")
		}
		return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
			"Order lookup failed", err.Error())
	}
	return resp, nil
}

// List returns the user's recorded orders, newest first
func (s *OrderService) List(ctx context.Context, userID string, limit int) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID, limit)
}
