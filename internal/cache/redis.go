package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tutorbooking/config"
	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisCache struct {
	client      *redis.Client
	programsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, programsTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		programsTTL,
	)
}

func NewRedisCacheFromClient(client *redis.Client, programsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, programsTTL: programsTTL}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// AcquireBookingLock takes the per-booking write lock. The returned release
// func is a no-op once the TTL has passed and another owner took the lock.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (func(context.Context) error, error) {
	key := bookingLockKey(bookingID)
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrConcurrentModification
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, c.client, []string{key}, token).Err()
	}, nil
}

func (c *RedisCache) GetProgram(ctx context.Context, id int64) (*domain.Program, error) {
	data, err := c.client.Get(ctx, programKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var program domain.Program
	if err := json.Unmarshal(data, &program); err != nil {
		return nil, err
	}
	return &program, nil
}

func (c *RedisCache) SetProgram(ctx context.Context, program *domain.Program) error {
	payload, err := json.Marshal(program)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, programKey(program.ID), payload, c.programsTTL).Err()
}

func (c *RedisCache) GetPrograms(ctx context.Context) ([]domain.Program, error) {
	data, err := c.client.Get(ctx, programsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var programs []domain.Program
	if err := json.Unmarshal(data, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

func (c *RedisCache) SetPrograms(ctx context.Context, programs []domain.Program) error {
	payload, err := json.Marshal(programs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, programsKey(), payload, c.programsTTL).Err()
}

func programsKey() string {
	return "cache:programs"
}

func programKey(id int64) string {
	return fmt.Sprintf("cache:program:%d", id)
}

func bookingLockKey(bookingID int64) string {
	return fmt.Sprintf("lock:booking:%d", bookingID)
}
