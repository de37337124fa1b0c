package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/vietanh2810/coffeeshop-api/internal/api/handler/v1/response"
)

// RateLimit limits requests per client IP with a rate such as "30-M". The
// counters live in Redis when a client is given so every instance shares them.
func RateLimit(name, formatted string, rdb *redis.Client) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("limiter.NewRateFromFormatted -> %w", err)
	}

	opts := limiter.StoreOptions{
		Prefix:          "limiter:" + name,
		MaxRetry:        limiter.DefaultMaxRetry,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}

	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, opts)
		if err != nil {
			return nil, fmt.Errorf("sredis.NewStoreWithOptions -> %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(opts)
	}

	return ginlimiter.NewMiddleware(
		limiter.New(store, rate),
		ginlimiter.WithLimitReachedHandler(func(ctx *gin.Context) {
			response.RenderErr(ctx, response.ErrTooManyRequests(fmt.Errorf("too many requests, try again later")))
		}),
	), nil
}
