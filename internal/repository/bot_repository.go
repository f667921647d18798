// Package repository provides data access for the application and interacts with Redis.
package repository

import (
	"context"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/redis"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type BotConfigRepository struct {
	redis *redis.Client
}

func NewBotConfigRepository(redisClient *redis.Client) *BotConfigRepository {
	return &BotConfigRepository{
		redis: redisClient,
	}
}

// Create stores a new bot configuration and its indexes
func (r *BotConfigRepository) Create(ctx context.Context, cfg *model.BotConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = cfg.CreatedAt

	if err := r.redis.SetJSON(ctx, redis.BotConfigKey(cfg.ID), cfg, 0); err != nil {
		return err
	}

	if err := r.redis.SAdd(ctx, redis.UserBotConfigsKey(cfg.UserID), cfg.ID); err != nil {
		return err
	}

	return r.redis.SAdd(ctx, redis.BotConfigsByTypeKey(cfg.BotType), cfg.ID)
}

// GetByID retrieves a bot configuration by ID
func (r *BotConfigRepository) GetByID(ctx context.Context, configID string) (*model.BotConfig, error) {
	var cfg model.BotConfig
	err := r.redis.GetJSON(ctx, redis.BotConfigKey(configID), &cfg)
	if err != nil {
		if err == redislib.Nil {
			return nil, util.ErrNotFound("Bot configuration not found")
		}
		return nil, err
	}
	return &cfg, nil
}

// Update persists changes to an existing bot configuration
func (r *BotConfigRepository) Update(ctx context.Context, cfg *model.BotConfig) error {
	cfg.UpdatedAt = time.Now()
	return r.redis.SetJSON(ctx, redis.BotConfigKey(cfg.ID), cfg, 0)
}

// Delete removes a bot configuration and its index entries
func (r *BotConfigRepository) Delete(ctx context.Context, configID string) error {
	cfg, err := r.GetByID(ctx, configID)
	if err != nil {
		return err
	}

	if err := r.redis.Del(ctx, redis.BotConfigKey(configID), redis.BotStateKey(configID)); err != nil {
		return err
	}

	r.redis.SRem(ctx, redis.UserBotConfigsKey(cfg.UserID), configID)
	r.redis.SRem(ctx, redis.BotConfigsByTypeKey(cfg.BotType), configID)

	return nil
}

// ListByUser retrieves all bot configurations owned by a user
func (r *BotConfigRepository) ListByUser(ctx context.Context, userID string) ([]*model.BotConfig, error) {
	ids, err := r.redis.SMembers(ctx, redis.UserBotConfigsKey(userID))
	if err != nil {
		return nil, err
	}

	configs := make([]*model.BotConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := r.GetByID(ctx, id)
		if err == nil {
			configs = append(configs, cfg)
		}
	}

	return configs, nil
}

// ListByType retrieves all bot configurations of one bot type
func (r *BotConfigRepository) ListByType(ctx context.Context, botType string) ([]*model.BotConfig, error) {
	ids, err := r.redis.SMembers(ctx, redis.BotConfigsByTypeKey(botType))
	if err != nil {
		return nil, err
	}

	configs := make([]*model.BotConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := r.GetByID(ctx, id)
		if err == nil {
			configs = append(configs, cfg)
		}
	}

	return configs, nil
}

// SaveState stores the last reported runtime state of a bot so status
// survives an API restart
func (r *BotConfigRepository) SaveState(ctx context.Context, configID string, state *model.BotStatus) error {
	return r.redis.SetJSON(ctx, redis.BotStateKey(configID), state, 0)
}

// GetState retrieves the last stored runtime state, or nil when none exists
func (r *BotConfigRepository) GetState(ctx context.Context, configID string) (*model.BotStatus, error) {
	var state model.BotStatus
	err := r.redis.GetJSON(ctx, redis.BotStateKey(configID), &state)
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}
