package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sablecart/payment-service/internal/domain"
)

type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	return &OrderCache{rdb: rdb, ttl: ttl}
}

func InitRedis(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func orderNumberKey(orderNumber string) string {
	return fmt.Sprintf("order:num:%s", orderNumber)
}

func (c *OrderCache) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	data, err := c.rdb.Get(ctx, orderKey(orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, err
	}

	var order domain.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &order, nil
}

func (c *OrderCache) SetOrder(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, orderKey(order.ID), data, c.ttl).Err(); err != nil {
		return err
	}
	return c.rdb.Set(ctx, orderNumberKey(order.OrderNumber), data, c.ttl).Err()
}

func (c *OrderCache) InvalidateOrder(ctx context.Context, orderID, orderNumber string) error {
	return c.rdb.Del(ctx, orderKey(orderID), orderNumberKey(orderNumber)).Err()
}
