package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bridgekit/mentiond/internal/cache"
	"github.com/bridgekit/mentiond/internal/config"
	"github.com/bridgekit/mentiond/internal/kv"
)

// openStore builds the document store for the configured backend. The
// redis client is returned too when one was opened, so the caller can
// reuse it for pub/sub.
func openStore(cfg config.Config) (kv.Store, *redis.Client, error) {
	switch cfg.Storage.Backend {
	case "file":
		store, err := kv.NewFSStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, openRedis(cfg), nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Storage.RedisAddr,
			DB:   cfg.Storage.RedisDB,
		})
		return kv.NewRedisStore(rdb), rdb, nil

	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.Storage.PostgresDsn), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "open postgres")
		}
		store, err := kv.NewPostgresStore(db)
		if err != nil {
			return nil, nil, err
		}
		return store, openRedis(cfg), nil
	}

	return nil, nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// openRedis returns a client for pub/sub when an address is configured
// alongside a non-redis backend, nil otherwise.
func openRedis(cfg config.Config) *redis.Client {
	if cfg.Storage.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: cfg.Storage.RedisAddr,
		DB:   cfg.Storage.RedisDB,
	})
}

func openCache(cfg config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.Noop{}
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	switch cfg.Cache.Backend {
	case "memcached":
		return cache.NewMemcached(cfg.Cache.MemcachedAddr, ttl)
	default:
		return cache.NewLocal(ttl)
	}
}
