package modelstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/go-sod/vtml/internal/predictor"
)

var _ Store = (*RedisStore)(nil)

const redisKeyPrefix = "vtml:model:"

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(ctx context.Context, opts *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

func RedisKey(kind predictor.Kind) string {
	return redisKeyPrefix + kind.String()
}

func (s *RedisStore) Load(ctx context.Context, kind predictor.Kind) ([]byte, error) {
	data, err := s.client.Get(ctx, RedisKey(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", kind, err)
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, kind predictor.Kind, data []byte) error {
	if err := s.client.Set(ctx, RedisKey(kind), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Close(context.Context) error {
	return s.client.Close()
}
