package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

const keyOrderStatus = "order_status:%s"

var ErrCacheMiss = errors.New("cache miss")

// StatusCache absorbs the payment page polling.
type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStatusCache(rdb *redis.Client, ttl time.Duration) *StatusCache {
	return &StatusCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *StatusCache) Get(ctx context.Context, orderID string) (domain.OrderStatusView, error) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OrderStatusView{}, ErrCacheMiss
		}

		return domain.OrderStatusView{}, err
	}

	var view domain.OrderStatusView
	if err = json.Unmarshal(raw, &view); err != nil {
		return domain.OrderStatusView{}, err
	}

	return view, nil
}

func (c *StatusCache) Set(ctx context.Context, view domain.OrderStatusView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, view.OrderID), raw, c.ttl).Err()
}

// SetIfAbsent only fills an empty key, so a read-through fill never
// overwrites a view written by an update.
func (c *StatusCache) SetIfAbsent(ctx context.Context, view domain.OrderStatusView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}

	return c.rdb.SetNX(ctx, fmt.Sprintf(keyOrderStatus, view.OrderID), raw, c.ttl).Err()
}

// NoopStatusCache always misses.
type NoopStatusCache struct{}

func (NoopStatusCache) Get(context.Context, string) (domain.OrderStatusView, error) {
	return domain.OrderStatusView{}, ErrCacheMiss
}

func (NoopStatusCache) Set(context.Context, domain.OrderStatusView) error { return nil }

func (NoopStatusCache) SetIfAbsent(context.Context, domain.OrderStatusView) error { return nil }
