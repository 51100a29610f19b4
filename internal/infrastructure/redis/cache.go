package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fatura/internal/domain/forecast"
)

// NewClient connects to redis, verifying the connection before returning.
func NewClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.ConnMaxIdleTime = 200 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ForecastCache memoizes computed forecasts per user and month. Entries
// expire on their own; write paths delete the affected entry so a new
// expense is visible before the TTL runs out. It implements forecast.Cache.
type ForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewForecastCache(client *redis.Client, ttl time.Duration) *ForecastCache {
	return &ForecastCache{client: client, ttl: ttl}
}

func cacheKey(userID int64, month time.Time) string {
	return fmt.Sprintf("forecast:%d:%04d-%02d", userID, month.Year(), int(month.Month()))
}

func (c *ForecastCache) Get(ctx context.Context, userID int64, month time.Time) (*forecast.Result, error) {
	payload, err := c.client.Get(ctx, cacheKey(userID, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read forecast cache: %w", err)
	}

	var result forecast.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode cached forecast: %w", err)
	}
	return &result, nil
}

func (c *ForecastCache) Set(ctx context.Context, userID int64, month time.Time, result *forecast.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(userID, month), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("write forecast cache: %w", err)
	}
	return nil
}

func (c *ForecastCache) Delete(ctx context.Context, userID int64, month time.Time) error {
	if err := c.client.Del(ctx, cacheKey(userID, month)).Err(); err != nil {
		return fmt.Errorf("drop forecast cache: %w", err)
	}
	return nil
}
