package service

import (
	"context"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/strategy"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/logger"
)

// BotService handles bot configuration CRUD
type BotService struct {
	configRepo *repository.BotConfigRepository
	runtime    *BotRuntime
	log        *logger.Logger
}

func NewBotService(configRepo *repository.BotConfigRepository) *BotService {
	return &BotService{
		configRepo: configRepo,
		log:        logger.GetLogger(),
	}
}

// SetRuntime wires the bot runtime (set after both services are created to
// avoid a construction cycle)
func (s *BotService) SetRuntime(runtime *BotRuntime) {
	s.runtime = runtime
}

// CreateConfig validates and stores a new bot configuration
func (s *BotService) CreateConfig(ctx context.Context, userID string, req *model.BotConfigRequest) (*model.BotConfig, error) {
	cfg := &model.BotConfig{
		UserID:   userID,
		Name:     req.Name,
		BotType:  req.BotType,
		Symbol:   req.Symbol,
		Settings: req.Settings,
	}

	if !model.IsValidBotType(cfg.BotType) {
		return nil, util.ErrBadRequest("Unsupported bot type: " + cfg.BotType)
	}
	if err := strategy.ValidateSettings(cfg); err != nil {
		return nil, err
	}

	if err := s.configRepo.Create(ctx, cfg); err != nil {
		return nil, util.ErrInternalServer("Failed to create bot configuration")
	}

	s.log.Infof("Bot config %s created: user=%s type=%s symbol=%s", cfg.ID, userID, cfg.BotType, cfg.Symbol)
	return cfg, nil
}

// GetConfig retrieves a bot configuration, enforcing ownership
func (s *BotService) GetConfig(ctx context.Context, userID, configID string) (*model.BotConfig, error) {
	cfg, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if cfg.UserID != userID {
		return nil, util.ErrForbidden("Bot configuration belongs to another user")
	}
	return cfg, nil
}

// ListConfigs retrieves all bot configurations owned by a user
func (s *BotService) ListConfigs(ctx context.Context, userID string) ([]*model.BotConfig, error) {
	return s.configRepo.ListByUser(ctx, userID)
}

// UpdateConfig replaces the mutable fields of a bot configuration.
// A running bot must be stopped before its settings can change.
func (s *BotService) UpdateConfig(ctx context.Context, userID, configID string, req *model.BotConfigRequest) (*model.BotConfig, error) {
	cfg, err := s.GetConfig(ctx, userID, configID)
	if err != nil {
		return nil, err
	}

	if s.runtime != nil && s.runtime.IsRunning(configID) {
		return nil, util.ErrConflict("Stop the bot before changing its configuration")
	}

	if req.BotType != cfg.BotType {
		return nil, util.ErrBadRequest("Bot type cannot be changed")
	}

	cfg.Name = req.Name
	cfg.Symbol = req.Symbol
	cfg.Settings = req.Settings

	if err := strategy.ValidateSettings(cfg); err != nil {
		return nil, err
	}

	if err := s.configRepo.Update(ctx, cfg); err != nil {
		return nil, util.ErrInternalServer("Failed to update bot configuration")
	}
	return cfg, nil
}

// DeleteConfig removes a bot configuration. Running bots cannot be deleted.
func (s *BotService) DeleteConfig(ctx context.Context, userID, configID string) error {
	if _, err := s.GetConfig(ctx, userID, configID); err != nil {
		return err
	}

	if s.runtime != nil && s.runtime.IsRunning(configID) {
		return util.ErrConflict("Stop the bot before deleting its configuration")
	}

	if err := s.configRepo.Delete(ctx, configID); err != nil {
		return util.ErrInternalServer("Failed to delete bot configuration")
	}

	s.log.Infof("Bot config %s deleted by user %s", configID, userID)
	return nil
}
