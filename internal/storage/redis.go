package storage

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	tiktok "github.com/RavensCloud/tiktok-stats"
)

// RedisStore keeps the record as a JSON string under one key.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisClient parses a redis:// or rediss:// URL.
func NewRedisClient(rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) Read(ctx context.Context) (tiktok.StatsRecord, bool, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return tiktok.StatsRecord{}, false, nil
		}
		return tiktok.StatsRecord{}, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) Write(ctx context.Context, rec tiktok.StatsRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close(context.Context) error {
	return s.rdb.Close()
}

func decodeRecord(data []byte) (tiktok.StatsRecord, bool, error) {
	var rec tiktok.StatsRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return tiktok.StatsRecord{}, false, fmt.Errorf("decode record: %w", err)
	}
	return rec, true, nil
}
