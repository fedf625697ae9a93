package conn

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "localhost:6379"

// RedisOption defines connection options for Redis.
type RedisOption struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (opt RedisOption) options() *redis.Options {
	addr := opt.Addr
	if addr == "" {
		addr = defaultRedisAddr
	}
	return &redis.Options{
		Addr:         addr,
		Username:     opt.Username,
		Password:     opt.Password,
		DB:           opt.DB,
		PoolSize:     opt.PoolSize,
		DialTimeout:  opt.DialTimeout,
		ReadTimeout:  opt.ReadTimeout,
		WriteTimeout: opt.WriteTimeout,
	}
}

// NewRedis opens a Redis client and checks it with a ping.
func NewRedis(ctx context.Context, option RedisOption) (*redis.Client, error) {
	client := redis.NewClient(option.options())
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
