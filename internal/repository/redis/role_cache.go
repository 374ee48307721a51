package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	roledomain "legacy-keeper-go/internal/domain/role"
	"legacy-keeper-go/pkg/logger"
)

const opTimeout = 500 * time.Millisecond

// RoleCache keeps resolved delegations in Redis so every instance sees the same
// invalidations. Redis failures are logged and treated as cache misses.
type RoleCache struct {
	client *goredis.Client
	prefix string
	log    logger.Logger
}

func NewRoleCache(client *goredis.Client, prefix string, log logger.Logger) *RoleCache {
	return &RoleCache{client: client, prefix: prefix, log: log}
}

func (c *RoleCache) key(userID string) string {
	return c.prefix + ":roles:" + userID
}

func (c *RoleCache) Get(ctx context.Context, userID string) ([]roledomain.Descriptor, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("role_cache: redis get failed", "user_id", userID, "err", err)
		}
		return nil, false
	}

	var descriptors []roledomain.Descriptor
	if err := json.Unmarshal(raw, &descriptors); err != nil {
		c.log.Warn("role_cache: decode failed", "user_id", userID, "err", err)
		return nil, false
	}
	return descriptors, true
}

func (c *RoleCache) Set(ctx context.Context, userID string, descriptors []roledomain.Descriptor, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(ctx, userID)
		return
	}
	if descriptors == nil {
		descriptors = []roledomain.Descriptor{}
	}
	raw, err := json.Marshal(descriptors)
	if err != nil {
		c.log.Warn("role_cache: encode failed", "user_id", userID, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.key(userID), raw, ttl).Err(); err != nil {
		c.log.Warn("role_cache: redis set failed", "user_id", userID, "err", err)
	}
}

func (c *RoleCache) Delete(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		c.log.Warn("role_cache: redis delete failed", "user_id", userID, "err", err)
	}
}

// NewClient connects and pings with a short timeout.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
