package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const verdictKeyPrefix = "orderflow:auth:token:"

// VerdictCache remembers tokens the auth service accepted. Keys are a hash of
// the token; the token itself is never stored. Cache failures are logged and
// treated as misses.
type VerdictCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewVerdictCache(rdb *redis.Client, logger *zap.Logger) *VerdictCache {
	return &VerdictCache{rdb: rdb, logger: logger}
}

func (c *VerdictCache) Lookup(ctx context.Context, token string) (*Principal, bool) {
	raw, err := c.rdb.Get(ctx, verdictKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("token cache lookup failed", zap.Error(err))
		return nil, false
	}

	var p Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("token cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return &p, true
}

// Store caches p for at most ttl, and never past the token's own expiry.
func (c *VerdictCache) Store(ctx context.Context, token string, p *Principal, ttl time.Duration) {
	if !p.ExpiresAt.IsZero() {
		ttl = min(ttl, time.Until(p.ExpiresAt))
	}
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, verdictKey(token), raw, ttl).Err(); err != nil {
		c.logger.Warn("token cache store failed", zap.Error(err))
	}
}

func verdictKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return verdictKeyPrefix + hex.EncodeToString(sum[:])
}
