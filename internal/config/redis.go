package config

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns host:port.
func (r RedisSettings) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Options returns client options for the rate-limit store. go-redis retries
// are disabled: the store does its own single retry on timeout.
func (r RedisSettings) Options() *redis.Options {
	return &redis.Options{
		Addr:         r.Addr(),
		Password:     r.Password,
		DB:           r.DB,
		MaxRetries:   -1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// NewRedisClient connects and pings. The caller closes the client.
func NewRedisClient(ctx context.Context, r RedisSettings) (*redis.Client, error) {
	client := redis.NewClient(r.Options())
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", r.Addr(), err)
	}
	return client, nil
}
