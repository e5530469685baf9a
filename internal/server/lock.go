package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrImportInProgress is returned when another import holds the user's
// lock.
var ErrImportInProgress = errors.New("an import is already in progress for this user")

// ImportLocker serializes imports per user with an advisory Redis lock.
// Without Redis configured it degrades to lock-free operation: concurrent
// imports then race, which is the pre-lock behavior, not a new failure
// mode.
type ImportLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewImportLocker(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *ImportLocker {
	if logger == nil {
		logger = slog.Default()
	}
	l := &ImportLocker{ttl: ttl, logger: logger}
	if rdb != nil {
		l.locker = redislock.New(rdb)
	}
	return l
}

// Acquire takes the per-user import lock. The returned release func is
// always safe to call.
func (l *ImportLocker) Acquire(ctx context.Context, userID string) (func(), error) {
	if l.locker == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("import:user:%s", userID)
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrImportInProgress
	}
	if err != nil {
		// A dead Redis should not block imports entirely.
		l.logger.Warn("import.lock.unavailable", "user_id", userID, "error", err)
		return func() {}, nil
	}

	return func() {
		if err := lock.Release(context.Background()); err != nil {
			l.logger.Warn("import.lock.release_failed", "user_id", userID, "error", err)
		}
	}, nil
}
