package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const invalidationChannel = "inventory:changed"

// Invalidator signals downstream search caches that a user's inventory
// changed. All operations are best-effort: a dead cache degrades search
// freshness, it must never fail an import.
type Invalidator struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewInvalidator wraps the redis client. A nil client yields a no-op
// invalidator, used when Redis is not configured.
func NewInvalidator(rdb *redis.Client, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{rdb: rdb, logger: logger}
}

// Invalidate drops the user's cached search embeddings and publishes a
// change notification. Errors are logged and swallowed.
func (i *Invalidator) Invalidate(ctx context.Context, userID string) {
	if i == nil || i.rdb == nil {
		return
	}

	key := fmt.Sprintf("search:embeddings:%s", userID)
	if err := i.rdb.Del(ctx, key).Err(); err != nil {
		i.logger.Warn("search.invalidate.del_failed", "user_id", userID, "error", err)
	}
	if err := i.rdb.Publish(ctx, invalidationChannel, userID).Err(); err != nil {
		i.logger.Warn("search.invalidate.publish_failed", "user_id", userID, "error", err)
		return
	}
	i.logger.Info("search.invalidate.ok", "user_id", userID)
}
