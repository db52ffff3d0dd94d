// Package viewguard decides whether a view should be counted.
package viewguard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Guard interface {
	// Allow reports whether viewerKey's view of videoID counts.
	Allow(ctx context.Context, viewerKey, videoID string) (bool, error)
}

// AllowAll counts every view.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, string, string) (bool, error) { return true, nil }

// RedisGuard counts at most one view per viewer and video within Window.
type RedisGuard struct {
	Client *redis.Client
	Window time.Duration
}

func NewRedisGuard(ctx context.Context, addr string, window time.Duration) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisGuard{Client: client, Window: window}, nil
}

func key(viewerKey, videoID string) string {
	return "view:" + videoID + ":" + viewerKey
}

func (g *RedisGuard) Allow(ctx context.Context, viewerKey, videoID string) (bool, error) {
	ok, err := g.Client.SetNX(ctx, key(viewerKey, videoID), 1, g.Window).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Close() error { return g.Client.Close() }
