package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/redis"
)

// NotificationService handles publishing events to Redis for WebSocket broadcasting
type NotificationService struct {
	redis *redis.Client
	log   *logger.Logger

	// Price update batching
	priceUpdateBatch map[string]*model.SymbolPrice // symbol -> latest price
	batchMu          sync.RWMutex
	batchTicker      *time.Ticker
	batchStop        chan struct{}
}

func NewNotificationService(redis *redis.Client) *NotificationService {
	ns := &NotificationService{
		redis:            redis,
		log:              logger.GetLogger(),
		priceUpdateBatch: make(map[string]*model.SymbolPrice),
		batchTicker:      time.NewTicker(2 * time.Second),
		batchStop:        make(chan struct{}),
	}

	// Start batch flusher
	go ns.startBatchFlusher()

	return ns
}

// NotifyUser sends a message to a specific user via WebSocket
func (s *NotificationService) NotifyUser(ctx context.Context, userID string, msgType model.WSMessageType, payload interface{}) {
	msg := model.WSMessage{
		Type:    msgType,
		Payload: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("Failed to marshal notification: %v", err)
		return
	}

	channel := redis.UserChannel(userID)
	if err := s.redis.Publish(ctx, channel, data); err != nil {
		s.log.Errorf("Failed to publish notification to channel %s: %v", channel, err)
	}
}

// Broadcast sends a message to all connected users
func (s *NotificationService) Broadcast(ctx context.Context, msgType model.WSMessageType, payload interface{}) {
	msg := model.WSMessage{
		Type:    msgType,
		Payload: payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("Failed to marshal broadcast notification: %v", err)
		return
	}

	if err := s.redis.Publish(ctx, redis.ChannelWSBroadcast, data); err != nil {
		s.log.Errorf("Failed to publish broadcast notification: %v", err)
	}
}

// NotifyOrderUpdate sends an order update notification to a user
func (s *NotificationService) NotifyOrderUpdate(ctx context.Context, userID string, order *model.Order) {
	s.NotifyUser(ctx, userID, model.MessageTypeOrderUpdate, order)
}

// NotifyBotUpdate sends a bot status update notification
func (s *NotificationService) NotifyBotUpdate(ctx context.Context, userID string, payload model.WSBotUpdatePayload) {
	s.NotifyUser(ctx, userID, model.MessageTypeBotUpdate, payload)
}

// NotifyTradeUpdate sends a bot trade notification to a user
func (s *NotificationService) NotifyTradeUpdate(ctx context.Context, userID string, payload model.WSTradePayload) {
	s.NotifyUser(ctx, userID, model.MessageTypeTradeUpdate, payload)
}

// NotifyPriceUpdate adds a price to the batch (flushed every 2 seconds)
func (s *NotificationService) NotifyPriceUpdate(ctx context.Context, price *model.SymbolPrice) {
	// Always keep the latest per symbol
	s.batchMu.Lock()
	s.priceUpdateBatch[price.Symbol] = price
	s.batchMu.Unlock()
}

// startBatchFlusher periodically flushes the price update batch
func (s *NotificationService) startBatchFlusher() {
	for {
		select {
		case <-s.batchTicker.C:
			s.flushPriceUpdateBatch()
		case <-s.batchStop:
			return
		}
	}
}

// flushPriceUpdateBatch sends all collected price updates as a batch
func (s *NotificationService) flushPriceUpdateBatch() {
	s.batchMu.Lock()
	if len(s.priceUpdateBatch) == 0 {
		s.batchMu.Unlock()
		return
	}

	prices := make([]*model.SymbolPrice, 0, len(s.priceUpdateBatch))
	for _, price := range s.priceUpdateBatch {
		prices = append(prices, price)
	}

	s.priceUpdateBatch = make(map[string]*model.SymbolPrice)
	s.batchMu.Unlock()

	ctx := context.Background()
	s.Broadcast(ctx, model.MessageTypePriceUpdate, prices)
	s.log.Debugf("Flushed price update batch: %d symbols", len(prices))
}

// Stop stops the batch flusher and flushes any remaining updates
func (s *NotificationService) Stop() {
	s.batchTicker.Stop()
	close(s.batchStop)
	// Flush any remaining updates
	s.flushPriceUpdateBatch()
}
