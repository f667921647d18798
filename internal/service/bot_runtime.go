package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/strategy"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/logger"
)

// Poll intervals per strategy. Momentum works on closed candles so it polls
// slowly; grid reacts to price crossings and polls tighter.
const (
	momentumTickInterval = 15 * time.Second
	gridTickInterval     = 5 * time.Second
)

// BotInstance represents a running bot in memory
type BotInstance struct {
	Config   *model.BotConfig
	Creds    binance.Credentials
	StepSize string
	StopChan chan struct{}
	Done     chan struct{}

	mu     sync.Mutex
	status model.BotStatus
}

// Snapshot returns a copy of the instance's current status
func (i *BotInstance) Snapshot() *model.BotStatus {
	i.mu.Lock()
	defer i.mu.Unlock()
	st := i.status
	return &st
}

func (i *BotInstance) updateStatus(fn func(*model.BotStatus)) {
	i.mu.Lock()
	fn(&i.status)
	i.mu.Unlock()
}

// BotRuntime manages the lifecycle of running bot instances
type BotRuntime struct {
	configRepo          *repository.BotConfigRepository
	orderRepo           *repository.OrderRepository
	apiKeyService       *APIKeyService
	binanceClient       *binance.Client
	notificationService *NotificationService
	log                 *logger.Logger

	instances map[string]*BotInstance
	mu        sync.RWMutex
}

func NewBotRuntime(
	configRepo *repository.BotConfigRepository,
	orderRepo *repository.OrderRepository,
	apiKeyService *APIKeyService,
	binanceClient *binance.Client,
	notificationService *NotificationService,
) *BotRuntime {
	return &BotRuntime{
		configRepo:          configRepo,
		orderRepo:           orderRepo,
		apiKeyService:       apiKeyService,
		binanceClient:       binanceClient,
		notificationService: notificationService,
		log:                 logger.GetLogger(),
		instances:           make(map[string]*BotInstance),
	}
}

// IsRunning reports whether a bot instance exists for the configuration
func (s *BotRuntime) IsRunning(configID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.instances[configID]
	return ok
}

// Start launches a bot instance for the configuration. Starting an already
// running bot is a conflict.
func (s *BotRuntime) Start(ctx context.Context, userID, configID string) (*model.BotStatus, error) {
	cfg, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if cfg.UserID != userID {
		return nil, util.ErrForbidden("Bot configuration belongs to another user")
	}

	s.mu.Lock()
	if _, ok := s.instances[configID]; ok {
		s.mu.Unlock()
		return nil, util.ErrConflict("Bot is already running")
	}

	creds, err := s.apiKeyService.GetDecrypted(ctx, userID, "")
	if err != nil {
		s.mu.Unlock()
		return nil, util.ErrBadRequest("Valid API key required to start a bot")
	}

	inst := &BotInstance{
		Config:   cfg,
		Creds:    binance.Credentials{Key: creds.Key, Secret: creds.Secret},
		StopChan: make(chan struct{}),
		Done:     make(chan struct{}),
	}

	now := time.Now()
	inst.status = model.BotStatus{
		ConfigID:  cfg.ID,
		Name:      cfg.Name,
		BotType:   cfg.BotType,
		Symbol:    cfg.Symbol,
		Status:    model.BotStatusStarting,
		IsRunning: true,
		StartedAt: &now,
	}

	if info, err := s.binanceClient.GetSymbolInfo(ctx, cfg.Symbol); err == nil {
		inst.StepSize = info.StepSize
	} else {
		s.log.Warnf("Bot %s: failed to fetch symbol filters for %s, using default step size: %v", cfg.ID, cfg.Symbol, err)
		inst.StepSize = "0.00100000"
	}

	s.instances[configID] = inst
	s.mu.Unlock()

	cfg.IsEnabled = true
	if err := s.configRepo.Update(ctx, cfg); err != nil {
		s.log.Warnf("Bot %s: failed to persist enabled flag: %v", cfg.ID, err)
	}
	s.persistStatus(inst)
	s.notifyStatus(inst)

	go s.run(inst)

	s.log.Infof("Bot %s started: user=%s type=%s symbol=%s", cfg.ID, userID, cfg.BotType, cfg.Symbol)
	return inst.Snapshot(), nil
}

// Stop terminates a running bot instance. Stopping a bot that is not
// running is a not-found error.
func (s *BotRuntime) Stop(ctx context.Context, userID, configID string) error {
	cfg, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return err
	}
	if cfg.UserID != userID {
		return util.ErrForbidden("Bot configuration belongs to another user")
	}

	s.mu.Lock()
	inst, ok := s.instances[configID]
	if !ok {
		s.mu.Unlock()
		return util.ErrNotFound("Bot is not running")
	}
	delete(s.instances, configID)
	s.mu.Unlock()

	close(inst.StopChan)
	<-inst.Done

	cfg.IsEnabled = false
	if err := s.configRepo.Update(ctx, cfg); err != nil {
		s.log.Warnf("Bot %s: failed to persist enabled flag: %v", cfg.ID, err)
	}

	inst.updateStatus(func(st *model.BotStatus) {
		st.Status = model.BotStatusStopped
		st.IsRunning = false
	})
	s.persistStatus(inst)
	s.notifyStatus(inst)

	s.log.Infof("Bot %s stopped by user %s", configID, userID)
	return nil
}

// Status returns the runtime status of one configured bot
func (s *BotRuntime) Status(ctx context.Context, userID, configID string) (*model.BotStatus, error) {
	cfg, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if cfg.UserID != userID {
		return nil, util.ErrForbidden("Bot configuration belongs to another user")
	}

	s.mu.RLock()
	inst, ok := s.instances[configID]
	s.mu.RUnlock()
	if ok {
		return inst.Snapshot(), nil
	}

	return s.storedStatus(ctx, cfg), nil
}

// StatusAll returns the status of every bot the user has configured,
// running or not
func (s *BotRuntime) StatusAll(ctx context.Context, userID string) ([]*model.BotStatus, error) {
	configs, err := s.configRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]*model.BotStatus, 0, len(configs))
	for _, cfg := range configs {
		s.mu.RLock()
		inst, ok := s.instances[cfg.ID]
		s.mu.RUnlock()
		if ok {
			statuses = append(statuses, inst.Snapshot())
			continue
		}
		statuses = append(statuses, s.storedStatus(ctx, cfg))
	}
	return statuses, nil
}

// storedStatus loads the last persisted state of a stopped bot, or a bare
// stopped entry when none was saved
func (s *BotRuntime) storedStatus(ctx context.Context, cfg *model.BotConfig) *model.BotStatus {
	state, err := s.configRepo.GetState(ctx, cfg.ID)
	if err == nil && state != nil {
		state.IsRunning = false
		if state.Status == model.BotStatusRunning || state.Status == model.BotStatusStarting {
			state.Status = model.BotStatusStopped
		}
		return state
	}
	return &model.BotStatus{
		ConfigID:  cfg.ID,
		Name:      cfg.Name,
		BotType:   cfg.BotType,
		Symbol:    cfg.Symbol,
		Status:    model.BotStatusStopped,
		IsRunning: false,
	}
}

// StopAll terminates every running instance, used on shutdown
func (s *BotRuntime) StopAll() {
	s.mu.Lock()
	instances := make([]*BotInstance, 0, len(s.instances))
	for id, inst := range s.instances {
		instances = append(instances, inst)
		delete(s.instances, id)
	}
	s.mu.Unlock()

	for _, inst := range instances {
		close(inst.StopChan)
	}
	for _, inst := range instances {
		<-inst.Done
		inst.updateStatus(func(st *model.BotStatus) {
			st.Status = model.BotStatusStopped
			st.IsRunning = false
		})
		s.persistStatus(inst)
	}

	if len(instances) > 0 {
		s.log.Infof("Stopped %d running bot(s)", len(instances))
	}
}

func (s *BotRuntime) run(inst *BotInstance) {
	defer close(inst.Done)

	inst.updateStatus(func(st *model.BotStatus) {
		st.Status = model.BotStatusRunning
	})
	s.persistStatus(inst)
	s.notifyStatus(inst)

	s.log.Infof("Event loop starting for bot %s (%s)", inst.Config.ID, inst.Config.BotType)
	defer s.log.Infof("Event loop stopped for bot %s", inst.Config.ID)

	switch inst.Config.BotType {
	case model.BotTypeMomentum:
		s.runMomentum(inst)
	case model.BotTypeGrid:
		s.runGrid(inst)
	case model.BotTypeDCA:
		s.runDCA(inst)
	}
}

func (s *BotRuntime) runMomentum(inst *BotInstance) {
	m := strategy.NewMomentum(inst.Config)
	interval := inst.Config.SettingString("interval", "1h")
	tradeAmount := inst.Config.SettingFloat("trade_amount_quote", 0)
	warmup := m.WarmupPeriod()

	ticker := time.NewTicker(momentumTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-inst.StopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			klines, err := s.binanceClient.GetKlines(ctx, inst.Config.Symbol, interval, 0, 0, warmup+5)
			cancel()
			if err != nil {
				s.handleTickError(inst, err)
				continue
			}
			if len(klines) <= warmup {
				continue
			}

			closes := make([]float64, len(klines))
			for i, k := range klines {
				closes[i] = k.Close
			}
			m.Prepare(closes)

			last := len(closes) - 1
			price := closes[last]
			holding := inst.Snapshot().BaseBalance > util.TinyBalanceThreshold
			signal := m.Evaluate(last, holding)

			s.recordTick(inst, price, signal)

			switch signal {
			case strategy.SignalBuy:
				s.placeMarketOrder(inst, binance.CreateOrderParams{
					Symbol:        inst.Config.Symbol,
					Side:          binance.SideBuy,
					Type:          binance.OrderTypeMarket,
					QuoteOrderQty: tradeAmount,
				}, price)
			case strategy.SignalSell:
				s.placeMarketSell(inst, inst.Snapshot().BaseBalance, price)
			}
		}
	}
}

func (s *BotRuntime) runGrid(inst *BotInstance) {
	g := strategy.NewGrid(inst.Config)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	price, err := s.binanceClient.GetPrice(ctx, inst.Config.Symbol)
	cancel()
	if err != nil {
		s.stopWithError(inst, "Failed to fetch initial price: "+err.Error())
		return
	}
	g.Prime(price)
	gridQty := g.OrderQuantity(price)

	ticker := time.NewTicker(gridTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-inst.StopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			price, err := s.binanceClient.GetPrice(ctx, inst.Config.Symbol)
			cancel()
			if err != nil {
				s.handleTickError(inst, err)
				continue
			}

			signal, level := g.Evaluate(price)
			s.recordTick(inst, price, signal)

			switch signal {
			case strategy.SignalBuy:
				if !s.placeMarketBuyQty(inst, gridQty, price) {
					g.ResetLevel(level)
				}
			case strategy.SignalSell:
				qty := gridQty
				if base := inst.Snapshot().BaseBalance; base > 0 && base < qty {
					qty = base
				}
				s.placeMarketSell(inst, qty, price)
			}
		}
	}
}

func (s *BotRuntime) runDCA(inst *BotInstance) {
	d := strategy.NewDCA(inst.Config)

	// first purchase fires immediately on start
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-inst.StopChan:
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			price, err := s.binanceClient.GetPrice(ctx, inst.Config.Symbol)
			cancel()
			if err != nil {
				s.handleTickError(inst, err)
				timer.Reset(time.Minute)
				continue
			}

			s.recordTick(inst, price, strategy.SignalBuy)
			s.placeMarketOrder(inst, binance.CreateOrderParams{
				Symbol:        inst.Config.Symbol,
				Side:          binance.SideBuy,
				Type:          binance.OrderTypeMarket,
				QuoteOrderQty: d.OrderAmountQuote,
			}, price)

			now := time.Now()
			d.MarkPurchased(now)
			timer.Reset(time.Until(d.NextPurchase(now)))
		}
	}
}

func (s *BotRuntime) recordTick(inst *BotInstance, price float64, signal strategy.Signal) {
	now := time.Now()
	inst.updateStatus(func(st *model.BotStatus) {
		st.LastTickAt = &now
		st.LastPrice = price
		if signal != strategy.SignalNone {
			st.LastSignal = string(signal)
		}
	})
}

// placeMarketBuyQty buys a base-asset quantity, formatted to step size.
// Returns false when the order was not placed.
func (s *BotRuntime) placeMarketBuyQty(inst *BotInstance, quantity, price float64) bool {
	formatted, err := strconv.ParseFloat(util.FormatQuantity(quantity, inst.StepSize), 64)
	if err != nil || formatted <= 0 {
		return false
	}
	return s.placeMarketOrder(inst, binance.CreateOrderParams{
		Symbol:   inst.Config.Symbol,
		Side:     binance.SideBuy,
		Type:     binance.OrderTypeMarket,
		Quantity: formatted,
	}, price)
}

func (s *BotRuntime) placeMarketSell(inst *BotInstance, quantity, price float64) bool {
	formatted, err := strconv.ParseFloat(util.FormatQuantity(quantity, inst.StepSize), 64)
	if err != nil || formatted <= 0 {
		return false
	}
	return s.placeMarketOrder(inst, binance.CreateOrderParams{
		Symbol:   inst.Config.Symbol,
		Side:     binance.SideSell,
		Type:     binance.OrderTypeMarket,
		Quantity: formatted,
	}, price)
}

func (s *BotRuntime) placeMarketOrder(inst *BotInstance, p binance.CreateOrderParams, price float64) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := s.binanceClient.CreateOrder(ctx, inst.Creds, p)
	if err != nil {
		s.log.Errorf("Bot %s: order failed (%s %s): %v", inst.Config.ID, p.Side, p.Symbol, err)
		if util.IsAPIKeyError(err) || util.IsCriticalTradingError(err) {
			s.stopWithError(inst, "Trading halted: "+err.Error())
		}
		return false
	}

	executedQty, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	quoteQty, _ := strconv.ParseFloat(resp.CummulativeQuoteQty, 64)

	order := &model.Order{
		UserID:          inst.Config.UserID,
		ConfigID:        inst.Config.ID,
		ExchangeOrderID: resp.OrderID,
		Symbol:          resp.Symbol,
		Side:            resp.Side,
		Type:            resp.Type,
		Status:          resp.Status,
		Quantity:        p.Quantity,
		QuoteQuantity:   p.QuoteOrderQty,
		ExecutedQty:     executedQty,
	}
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := s.orderRepo.Create(saveCtx, order); err != nil {
		s.log.Warnf("Bot %s: failed to record order %d: %v", inst.Config.ID, resp.OrderID, err)
	}
	saveCancel()

	inst.updateStatus(func(st *model.BotStatus) {
		st.TradeCount++
		if p.Side == binance.SideBuy {
			st.BaseBalance += executedQty
			st.QuoteBalance -= quoteQty
		} else {
			st.BaseBalance -= executedQty
			if st.BaseBalance < util.TinyBalanceThreshold {
				st.BaseBalance = 0
			}
			st.QuoteBalance += quoteQty
		}
	})

	s.notificationService.NotifyTradeUpdate(context.Background(), inst.Config.UserID, model.WSTradePayload{
		ConfigID: inst.Config.ID,
		Symbol:   p.Symbol,
		Side:     p.Side,
		Price:    price,
		Quantity: executedQty,
	})
	s.persistStatus(inst)
	s.notifyStatus(inst)

	s.log.Infof("Bot %s: %s %s executed qty=%s quote=%s", inst.Config.ID, p.Side, p.Symbol, resp.ExecutedQty, resp.CummulativeQuoteQty)
	return true
}

// handleTickError logs a transient error and stops the bot when the error
// indicates revoked credentials or a broken symbol
func (s *BotRuntime) handleTickError(inst *BotInstance, err error) {
	s.log.Warnf("Bot %s: tick failed: %v", inst.Config.ID, err)
	if util.IsAPIKeyError(err) || util.IsCriticalTradingError(err) {
		s.stopWithError(inst, "Trading halted: "+err.Error())
	}
}

// stopWithError marks the instance as errored and removes it from the
// running set. The run loop exits on the closed StopChan.
func (s *BotRuntime) stopWithError(inst *BotInstance, message string) {
	s.mu.Lock()
	if _, ok := s.instances[inst.Config.ID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.instances, inst.Config.ID)
	s.mu.Unlock()

	inst.updateStatus(func(st *model.BotStatus) {
		st.Status = model.BotStatusError
		st.IsRunning = false
		st.ErrorMessage = message
	})
	close(inst.StopChan)

	s.persistStatus(inst)
	s.notifyStatus(inst)
	s.log.Errorf("Bot %s stopped with error: %s", inst.Config.ID, message)
}

func (s *BotRuntime) persistStatus(inst *BotInstance) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.configRepo.SaveState(ctx, inst.Config.ID, inst.Snapshot()); err != nil {
		s.log.Warnf("Bot %s: failed to persist state: %v", inst.Config.ID, err)
	}
}

func (s *BotRuntime) notifyStatus(inst *BotInstance) {
	st := inst.Snapshot()
	s.notificationService.NotifyBotUpdate(context.Background(), inst.Config.UserID, model.WSBotUpdatePayload{
		ConfigID:     st.ConfigID,
		Status:       st.Status,
		Symbol:       st.Symbol,
		LastSignal:   st.LastSignal,
		LastPrice:    st.LastPrice,
		BaseBalance:  st.BaseBalance,
		QuoteBalance: st.QuoteBalance,
		TradeCount:   st.TradeCount,
		ErrorMessage: st.ErrorMessage,
	})
}
