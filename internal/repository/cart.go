package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
)

const (
	keyCart = "cart:%s"

	memoryCartSweepInterval = time.Minute
)

// RedisCartStore keeps one JSON cart per session with a sliding TTL.
type RedisCartStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCartStore(rdb *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{
		rdb: rdb,
		ttl: ttl,
	}
}

func (s *RedisCartStore) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(keyCart, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Cart{}, nil
		}

		return domain.Cart{}, fmt.Errorf("s.rdb.Get -> %w", err)
	}

	var cart domain.Cart
	if err = json.Unmarshal(raw, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return cart, nil
}

func (s *RedisCartStore) Save(ctx context.Context, sessionID string, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = s.rdb.Set(ctx, fmt.Sprintf(keyCart, sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("s.rdb.Set -> %w", err)
	}

	return nil
}

func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, fmt.Sprintf(keyCart, sessionID)).Err(); err != nil {
		return fmt.Errorf("s.rdb.Del -> %w", err)
	}

	return nil
}

type memoryCart struct {
	cart      domain.Cart
	expiresAt time.Time
}

// MemoryCartStore is the single instance fallback when Redis is not configured.
type MemoryCartStore struct {
	mu        sync.Mutex
	carts     map[string]memoryCart
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryCartStore(ttl time.Duration) *MemoryCartStore {
	return &MemoryCartStore{
		carts: make(map[string]memoryCart),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryCartStore) Get(_ context.Context, sessionID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionID]
	if !ok {
		return domain.Cart{}, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.carts, sessionID)
		return domain.Cart{}, nil
	}

	items := make([]domain.CartItem, len(entry.cart.Items))
	copy(items, entry.cart.Items)

	return domain.Cart{Items: items}, nil
}

func (s *MemoryCartStore) Save(_ context.Context, sessionID string, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)
	s.carts[sessionID] = memoryCart{
		cart:      domain.Cart{Items: items},
		expiresAt: now.Add(s.ttl),
	}

	return nil
}

// sweep drops carts of abandoned sessions. Callers hold s.mu.
func (s *MemoryCartStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < memoryCartSweepInterval {
		return
	}
	s.lastSweep = now

	for id, entry := range s.carts {
		if now.After(entry.expiresAt) {
			delete(s.carts, id)
		}
	}
}

func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)

	return nil
}
