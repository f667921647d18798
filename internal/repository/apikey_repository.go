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

// APIKeyRepository handles exchange API key data operations
type APIKeyRepository struct {
	redis *redis.Client
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(redisClient *redis.Client) *APIKeyRepository {
	return &APIKeyRepository{
		redis: redisClient,
	}
}

// Create stores a new API key and adds it to the owner's index
func (r *APIKeyRepository) Create(ctx context.Context, apiKey *model.APIKey) error {
	if apiKey.ID == "" {
		apiKey.ID = uuid.New().String()
	}
	apiKey.CreatedAt = time.Now()
	apiKey.UpdatedAt = apiKey.CreatedAt

	if err := r.redis.SetJSON(ctx, redis.APIKeyKey(apiKey.ID), apiKey, 0); err != nil {
		return err
	}
	return r.redis.SAdd(ctx, redis.UserAPIKeysKey(apiKey.UserID), apiKey.ID)
}

// GetByID retrieves an API key by ID
func (r *APIKeyRepository) GetByID(ctx context.Context, keyID string) (*model.APIKey, error) {
	var apiKey model.APIKey
	if err := r.redis.GetJSON(ctx, redis.APIKeyKey(keyID), &apiKey); err != nil {
		if err == redislib.Nil {
			return nil, util.ErrNotFound("API key not found")
		}
		return nil, err
	}
	return &apiKey, nil
}

// Update persists changes to an existing API key
func (r *APIKeyRepository) Update(ctx context.Context, apiKey *model.APIKey) error {
	apiKey.UpdatedAt = time.Now()
	return r.redis.SetJSON(ctx, redis.APIKeyKey(apiKey.ID), apiKey, 0)
}

// Delete removes an API key and its index entry
func (r *APIKeyRepository) Delete(ctx context.Context, keyID string) error {
	apiKey, err := r.GetByID(ctx, keyID)
	if err != nil {
		return err
	}

	if err := r.redis.Del(ctx, redis.APIKeyKey(keyID)); err != nil {
		return err
	}
	return r.redis.SRem(ctx, redis.UserAPIKeysKey(apiKey.UserID), keyID)
}

// ListByUser retrieves all API keys owned by a user
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	ids, err := r.redis.SMembers(ctx, redis.UserAPIKeysKey(userID))
	if err != nil {
		return nil, err
	}

	keys := make([]*model.APIKey, 0, len(ids))
	for _, id := range ids {
		apiKey, err := r.GetByID(ctx, id)
		if err == nil {
			keys = append(keys, apiKey)
		}
	}

	return keys, nil
}

// GetFirstByUser returns the user's first stored API key. Bots and manual
// orders use it when no key is named explicitly.
func (r *APIKeyRepository) GetFirstByUser(ctx context.Context, userID string) (*model.APIKey, error) {
	keys, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, util.ErrNotFound("No API key configured")
	}
	return keys[0], nil
}

// Exists checks whether a user has at least one API key
func (r *APIKeyRepository) Exists(ctx context.Context, userID string) (bool, error) {
	count, err := r.redis.SCard(ctx, redis.UserAPIKeysKey(userID))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
