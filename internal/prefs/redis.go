package prefs

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore хранит настройки в Redis; TTL обновляется при каждой записи.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(addr string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &RedisStore{Client: client, TTL: 180 * 24 * time.Hour}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.Client.Set(ctx, key, value, s.TTL).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.Client.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.Client.Close() }
