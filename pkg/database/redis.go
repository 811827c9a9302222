package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "reservas:"

// RedisDatabase Redis 实现
type RedisDatabase struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisDatabase 创建 Redis 实例；url 可以是 redis:// 形式或 host:port
func NewRedisDatabase(url, password string, db int, timeout time.Duration) (*RedisDatabase, error) {
	var opts *redis.Options
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: url, DB: db}
	}
	if password != "" {
		opts.Password = password
	}

	r := NewRedisDatabaseFromClient(redis.NewClient(opts), timeout)
	if err := r.HealthCheck(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// NewRedisDatabaseFromClient 使用已有客户端
func NewRedisDatabaseFromClient(client *redis.Client, timeout time.Duration) *RedisDatabase {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RedisDatabase{client: client, timeout: timeout}
}

func (db *RedisDatabase) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), db.timeout)
}

func (db *RedisDatabase) Get(key string) (string, error) {
	ctx, cancel := db.ctx()
	defer cancel()

	v, err := db.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (db *RedisDatabase) Set(key, value string) error {
	ctx, cancel := db.ctx()
	defer cancel()

	if err := db.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (db *RedisDatabase) Delete(key string) error {
	ctx, cancel := db.ctx()
	defer cancel()

	if err := db.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// HealthCheck 发送 PING
func (db *RedisDatabase) HealthCheck() error {
	ctx, cancel := db.ctx()
	defer cancel()

	if err := db.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (db *RedisDatabase) Close() error {
	return db.client.Close()
}

func (db *RedisDatabase) Name() string {
	return DriverRedis
}
