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

type OrderRepository struct {
	redis *redis.Client
}

func NewOrderRepository(redisClient *redis.Client) *OrderRepository {
	return &OrderRepository{
		redis: redisClient,
	}
}

// Create stores a new order record
func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	if err := r.redis.SetJSON(ctx, redis.OrderKey(order.ID), order, 0); err != nil {
		return err
	}
	return r.redis.SAdd(ctx, redis.UserOrdersKey(order.UserID), order.ID)
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	if err := r.redis.GetJSON(ctx, redis.OrderKey(orderID), &order); err != nil {
		if err == redislib.Nil {
			return nil, util.ErrNotFound("Order not found")
		}
		return nil, err
	}
	return &order, nil
}

// Update persists changes to an existing order
func (r *OrderRepository) Update(ctx context.Context, order *model.Order) error {
	order.UpdatedAt = time.Now()
	return r.redis.SetJSON(ctx, redis.OrderKey(order.ID), order, 0)
}

// ListByUser retrieves a user's orders, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Order, error) {
	ids, err := r.redis.SMembers(ctx, redis.UserOrdersKey(userID))
	if err != nil {
		return nil, err
	}

	orders := make([]*model.Order, 0, len(ids))
	for _, id := range ids {
		order, err := r.GetByID(ctx, id)
		if err == nil {
			orders = append(orders, order)
		}
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if limit > 0 && limit < len(orders) {
		orders = orders[:limit]
	}
	return orders, nil
}
