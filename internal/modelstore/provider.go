package modelstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/go-sod/vtml/internal/database"
	"github.com/go-sod/vtml/internal/logging"
)

// NewFromConfig opens the configured backend. db is only needed by the bolt
// backend.
func NewFromConfig(ctx context.Context, cfg *Config, db *database.DB) (Store, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("using %s model store", cfg.Backend)

	switch cfg.Backend {
	case BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendBolt:
		if db == nil {
			return nil, fmt.Errorf("bolt model store requires a database")
		}
		return NewBoltStore(db), nil
	case BackendRedis:
		return NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown model store backend: %s", cfg.Backend)
	}
}
