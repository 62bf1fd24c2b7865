package kv

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore maps (bucket, key) onto redis key "<bucket>:<key>".
// Locking is still in-process; the deployment model is single-node.
type RedisStore struct {
	rdb   *redis.Client
	locks *keyedLocks
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb:   rdb,
		locks: newKeyedLocks(),
	}
}

func redisKey(bucket, key string) string {
	return bucket + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, redisKey(bucket, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return data, true, nil
}

func (s *RedisStore) Put(ctx context.Context, bucket, key string, value []byte) error {
	err := s.rdb.Set(ctx, redisKey(bucket, key), value, 0).Err()
	return errors.Wrap(err, "redis set")
}

func (s *RedisStore) Delete(ctx context.Context, bucket, key string) error {
	err := s.rdb.Del(ctx, redisKey(bucket, key)).Err()
	return errors.Wrap(err, "redis del")
}

func (s *RedisStore) Keys(ctx context.Context, bucket string) ([]string, error) {
	prefix := bucket + ":"
	var keys []string

	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan")
	}
	return keys, nil
}

func (s *RedisStore) Lock(bucket, key string) func() {
	return s.locks.Lock(bucket, key)
}
