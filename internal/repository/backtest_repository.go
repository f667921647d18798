// Package repository provides data access for the application and interacts with Redis.
package repository

import (
	"context"
	"sort"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/redis"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

// BacktestRepository handles saved backtest result operations
type BacktestRepository struct {
	redis *redis.Client
}

func NewBacktestRepository(redisClient *redis.Client) *BacktestRepository {
	return &BacktestRepository{
		redis: redisClient,
	}
}

// Create stores a backtest result and its indexes
func (r *BacktestRepository) Create(ctx context.Context, result *model.BacktestResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	result.CreatedAt = time.Now()

	if err := r.redis.SetJSON(ctx, redis.BacktestResultKey(result.ID), result, 0); err != nil {
		return err
	}

	if err := r.redis.SAdd(ctx, redis.UserBacktestResultsKey(result.UserID), result.ID); err != nil {
		return err
	}

	return r.redis.SAdd(ctx, redis.ConfigBacktestResultsKey(result.ConfigID), result.ID)
}

// GetByID retrieves a backtest result by ID
func (r *BacktestRepository) GetByID(ctx context.Context, resultID string) (*model.BacktestResult, error) {
	var result model.BacktestResult
	if err := r.redis.GetJSON(ctx, redis.BacktestResultKey(resultID), &result); err != nil {
		if err == redislib.Nil {
			return nil, util.ErrNotFound("Backtest result not found")
		}
		return nil, err
	}
	return &result, nil
}

// Delete removes a backtest result and its index entries
func (r *BacktestRepository) Delete(ctx context.Context, resultID string) error {
	result, err := r.GetByID(ctx, resultID)
	if err != nil {
		return err
	}

	if err := r.redis.Del(ctx, redis.BacktestResultKey(resultID)); err != nil {
		return err
	}

	r.redis.SRem(ctx, redis.UserBacktestResultsKey(result.UserID), resultID)
	r.redis.SRem(ctx, redis.ConfigBacktestResultsKey(result.ConfigID), resultID)

	return nil
}

// ListByUser retrieves a user's saved results as summaries, newest first.
// configID filters to one bot configuration when non-empty.
func (r *BacktestRepository) ListByUser(ctx context.Context, userID, configID string, limit, offset int) ([]*model.BacktestResultSummary, error) {
	indexKey := redis.UserBacktestResultsKey(userID)
	if configID != "" {
		indexKey = redis.ConfigBacktestResultsKey(configID)
	}

	ids, err := r.redis.SMembers(ctx, indexKey)
	if err != nil {
		return nil, err
	}

	results := make([]*model.BacktestResult, 0, len(ids))
	for _, id := range ids {
		result, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if result.UserID != userID {
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if offset >= len(results) {
		return []*model.BacktestResultSummary{}, nil
	}
	results = results[offset:]
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}

	summaries := make([]*model.BacktestResultSummary, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, result.ToSummary())
	}
	return summaries, nil
}
