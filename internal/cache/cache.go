package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace/internal/metrics"
	"marketplace/pkg/config"
	"marketplace/pkg/status"
)

// Scopes of cached per-user lists.
const (
	ScopeBookings = "bookings"
	ScopeBids     = "bids"
)

// ListCache holds each owner's rendered list views. A miss is never an error.
type ListCache interface {
	Get(ctx context.Context, scope, owner string, dst any) (bool, error)
	Set(ctx context.Context, scope, owner string, v any) error
	Invalidate(ctx context.Context, scope string, owners ...string) error
}

// Owner names whose list a cache entry is. Views carry role-specific actions,
// so the role is part of it. An empty user id yields an empty owner.
func Owner(userID string, role status.Role) string {
	if userID == "" {
		return ""
	}
	return string(role) + ":" + userID
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(scope, owner string) string {
	return fmt.Sprintf("list:%s:%s", scope, owner)
}

func (r *Redis) Get(ctx context.Context, scope, owner string, dst any) (bool, error) {
	val, err := r.client.Get(ctx, key(scope, owner)).Bytes()
	if err == redis.Nil {
		metrics.IncCacheLookup(false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cached list | %w", err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("decode cached list | %w", err)
	}
	metrics.IncCacheLookup(true)
	return true, nil
}

func (r *Redis) Set(ctx context.Context, scope, owner string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode list | %w", err)
	}
	if err := r.client.Set(ctx, key(scope, owner), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set cached list | %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, scope string, owners ...string) error {
	keys := make([]string, 0, len(owners))
	for _, o := range owners {
		if o != "" {
			keys = append(keys, key(scope, o))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached lists | %w", err)
	}
	return nil
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, string, any) error         { return nil }
func (Nop) Invalidate(context.Context, string, ...string) error     { return nil }
