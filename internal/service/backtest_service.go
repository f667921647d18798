package service

import (
	"context"
	"fmt"
	"time"

	"botdeck/backend/internal/backtest"
	"botdeck/backend/internal/config"
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/logger"
)

// BacktestService runs strategy simulations over historical klines and
// manages the saved results
type BacktestService struct {
	backtestRepo  *repository.BacktestRepository
	configRepo    *repository.BotConfigRepository
	binanceClient *binance.Client
	cfg           config.BacktestConfig
	log           *logger.Logger
}

func NewBacktestService(
	backtestRepo *repository.BacktestRepository,
	configRepo *repository.BotConfigRepository,
	binanceClient *binance.Client,
	cfg config.BacktestConfig,
) *BacktestService {
	return &BacktestService{
		backtestRepo:  backtestRepo,
		configRepo:    configRepo,
		binanceClient: binanceClient,
		cfg:           cfg,
		log:           logger.GetLogger(),
	}
}

// Run executes a backtest for the given bot configuration and date range,
// persists the result and returns the (possibly truncated) payload
func (s *BacktestService) Run(ctx context.Context, userID, configID string, req *model.BacktestRequest) (*model.BacktestResult, error) {
	cfg, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if cfg.UserID != userID {
		return nil, util.ErrForbidden("Bot configuration belongs to another user")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, util.ErrValidation("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, util.ErrValidation("end_date must be YYYY-MM-DD")
	}
	if !end.After(start) {
		return nil, util.ErrValidation("end_date must be after start_date")
	}
	if req.InitialCapital < util.MinInitialCapital {
		return nil, util.ErrValidation(fmt.Sprintf("initial_capital must be at least %.0f", util.MinInitialCapital))
	}

	interval := req.Interval
	if interval == "" {
		interval = s.cfg.KlineInterval
	}

	klines, err := s.fetchKlines(ctx, cfg.Symbol, interval, start, end)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, util.NewAppError(400, util.ErrCodeInsufficientData,
			"No historical data available for the requested range")
	}

	s.log.Infof("Running backtest: config=%s symbol=%s interval=%s klines=%d capital=%.2f",
		configID, cfg.Symbol, interval, len(klines), req.InitialCapital)

	engineResult, err := backtest.Run(backtest.Params{
		Config:         cfg,
		Klines:         klines,
		InitialCapital: req.InitialCapital,
		CommissionPct:  req.CommissionPct,
	})
	if err != nil {
		return nil, err
	}

	result := &model.BacktestResult{
		UserID:         userID,
		ConfigID:       cfg.ID,
		BotType:        cfg.BotType,
		Symbol:         cfg.Symbol,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Interval:       interval,
		InitialCapital: req.InitialCapital,
		CommissionPct:  req.CommissionPct,
		Metrics:        engineResult.Metrics,
		Trades:         engineResult.Trades,
		EquityCurve:    engineResult.EquityCurve,
	}

	if err := s.backtestRepo.Create(ctx, result); err != nil {
		return nil, util.ErrInternalServer("Failed to save backtest result")
	}

	return s.truncate(result), nil
}

// fetchKlines pages through the klines endpoint, which caps each request
// at the exchange limit
func (s *BacktestService) fetchKlines(ctx context.Context, symbol, interval string, start, end time.Time) ([]binance.Kline, error) {
	var all []binance.Kline
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	for startMs < endMs {
		batch, err := s.binanceClient.GetKlines(ctx, symbol, interval, startMs, endMs, util.MaxKlinesPerRequest)
		if err != nil {
			return nil, util.NewAppErrorWithDetails(400, util.ErrCodeExchangeAPI,
				"Failed to fetch historical data", err.Error())
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		startMs = batch[len(batch)-1].CloseTime + 1
		if len(batch) < util.MaxKlinesPerRequest {
			break
		}
	}
	return all, nil
}

// truncate caps the trade and equity payloads for the HTTP response while
// keeping the full result in storage
func (s *BacktestService) truncate(result *model.BacktestResult) *model.BacktestResult {
	out := *result
	if s.cfg.MaxTrades > 0 && len(out.Trades) > s.cfg.MaxTrades {
		out.Trades = out.Trades[:s.cfg.MaxTrades]
	}
	if s.cfg.MaxEquityPoints > 0 && len(out.EquityCurve) > s.cfg.MaxEquityPoints {
		out.EquityCurve = downsample(out.EquityCurve, s.cfg.MaxEquityPoints)
	}
	return &out
}

// downsample keeps n evenly spaced points of the curve, always including
// the final point
func downsample(curve []model.EquityPoint, n int) []model.EquityPoint {
	if n < 2 || len(curve) <= n {
		return curve
	}
	out := make([]model.EquityPoint, 0, n)
	step := float64(len(curve)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, curve[int(float64(i)*step)])
	}
	out[n-1] = curve[len(curve)-1]
	return out
}

// GetResult retrieves a saved backtest result with ownership enforced
func (s *BacktestService) GetResult(ctx context.Context, userID, resultID string) (*model.BacktestResult, error) {
	result, err := s.backtestRepo.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.UserID != userID {
		return nil, util.ErrForbidden("Backtest result belongs to another user")
	}
	return s.truncate(result), nil
}

// ListResults lists a user's saved results, optionally filtered to one
// configuration
func (s *BacktestService) ListResults(ctx context.Context, userID, configID string, limit, offset int) ([]*model.BacktestResultSummary, error) {
	return s.backtestRepo.ListByUser(ctx, userID, configID, limit, offset)
}

// DeleteResult removes a saved result with ownership enforced
func (s *BacktestService) DeleteResult(ctx context.Context, userID, resultID string) error {
	result, err := s.backtestRepo.GetByID(ctx, resultID)
	if err != nil {
		return err
	}
	if result.UserID != userID {
		return util.ErrForbidden("Backtest result belongs to another user")
	}
	return s.backtestRepo.Delete(ctx, resultID)
}
