package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/model"
)

// RedisListCache stores the full student list as one JSON value. Cache
// failures are logged and treated as misses; they never fail a request.
type RedisListCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisListCache returns nil when rdb is nil, which NewStudentService
// treats as "no cache".
func NewRedisListCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) ListCache {
	if rdb == nil {
		return nil
	}
	return &RedisListCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "student_cache").Logger(),
	}
}

func (c *RedisListCache) Get(ctx context.Context) ([]model.Student, bool) {
	data, err := c.rdb.Get(ctx, config.CacheKey.StudentListKey()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("cache read failed")
		}
		return nil, false
	}

	var students []model.Student
	if err := json.Unmarshal(data, &students); err != nil {
		c.log.Warn().Err(err).Msg("cache entry unreadable, dropping it")
		c.Invalidate(ctx)
		return nil, false
	}
	return students, true
}

func (c *RedisListCache) Set(ctx context.Context, students []model.Student) {
	data, err := json.Marshal(students)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := c.rdb.Set(ctx, config.CacheKey.StudentListKey(), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed")
	}
}

func (c *RedisListCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, config.CacheKey.StudentListKey()).Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache invalidate failed")
	}
}
