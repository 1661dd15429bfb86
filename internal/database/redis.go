package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	Timeout  time.Duration
}

// RedisClient wraps the Redis client with degraded mode support. When Redis
// is unreachable the gateway keeps relaying; presence markers and revocation
// checks are skipped until the health check recovers.
type RedisClient struct {
	Client         *redis.Client
	degradedMode   bool
	degradedModeMu sync.RWMutex
	healthCheckMu  sync.Mutex
}

// NewRedisDB creates a new Redis client from config
func NewRedisDB(cfg *RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		DialTimeout:  cfg.Timeout,
	})

	return &RedisClient{Client: client}, nil
}

// Close closes the Redis client connection
func (r *RedisClient) Close() {
	r.Client.Close()
}

// StartHealthCheck starts a background goroutine that periodically checks Redis health
func (r *RedisClient) StartHealthCheck(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.HealthCheck(context.Background())
			}
		}
	}()
}

// IsDegraded returns true if Redis is in degraded mode
func (r *RedisClient) IsDegraded() bool {
	r.degradedModeMu.RLock()
	defer r.degradedModeMu.RUnlock()
	return r.degradedMode
}

func (r *RedisClient) setDegradedState(degraded bool) {
	r.degradedModeMu.Lock()
	defer r.degradedModeMu.Unlock()
	r.degradedMode = degraded
}

// HealthCheck pings Redis and updates degraded mode accordingly
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	r.healthCheckMu.Lock()
	defer r.healthCheckMu.Unlock()

	healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.Client.Ping(healthCtx).Err(); err != nil {
		r.setDegradedState(true)
		return fmt.Errorf("redis health check failed: %w", err)
	}

	r.setDegradedState(false)
	return nil
}

// SafeSet performs a SET operation with degraded mode handling
func (r *RedisClient) SafeSet(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if r.IsDegraded() {
		return redis.NewStatusResult("", fmt.Errorf("redis is in degraded mode, set skipped"))
	}
	return r.Client.Set(ctx, key, value, expiration)
}

// SafeDel performs a DEL operation with degraded mode handling
func (r *RedisClient) SafeDel(ctx context.Context, keys ...string) *redis.IntCmd {
	if r.IsDegraded() {
		return redis.NewIntResult(0, fmt.Errorf("redis is in degraded mode, del skipped"))
	}
	return r.Client.Del(ctx, keys...)
}

// SafeExpire performs an EXPIRE operation with degraded mode handling
func (r *RedisClient) SafeExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if r.IsDegraded() {
		return redis.NewBoolResult(false, fmt.Errorf("redis is in degraded mode, expire skipped"))
	}
	return r.Client.Expire(ctx, key, expiration)
}

// SafeExists performs an EXISTS operation with degraded mode handling
func (r *RedisClient) SafeExists(ctx context.Context, keys ...string) *redis.IntCmd {
	if r.IsDegraded() {
		return redis.NewIntResult(0, fmt.Errorf("redis is in degraded mode, exists skipped"))
	}
	return r.Client.Exists(ctx, keys...)
}

// SafeSAdd performs a SADD operation with degraded mode handling
func (r *RedisClient) SafeSAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	if r.IsDegraded() {
		return redis.NewIntResult(0, fmt.Errorf("redis is in degraded mode, sadd skipped"))
	}
	return r.Client.SAdd(ctx, key, members...)
}

// SafeSRem performs a SREM operation with degraded mode handling
func (r *RedisClient) SafeSRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	if r.IsDegraded() {
		return redis.NewIntResult(0, fmt.Errorf("redis is in degraded mode, srem skipped"))
	}
	return r.Client.SRem(ctx, key, members...)
}

// SafeSMembers performs a SMEMBERS operation with degraded mode handling
func (r *RedisClient) SafeSMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	if r.IsDegraded() {
		return redis.NewStringSliceResult([]string{}, fmt.Errorf("redis is in degraded mode, smembers skipped"))
	}
	return r.Client.SMembers(ctx, key)
}
