package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ai-shadow/shadow-backend/internal/logger"
)

const (
	defaultLockTTL   = 3 * time.Minute
	defaultRetryWait = 100 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds per-chat locks in Redis so every API instance sees them.
type RedisLocker struct {
	client    redis.UniversalClient
	log       *logger.Logger
	ttl       time.Duration
	retryWait time.Duration
}

func NewRedisLocker(client redis.UniversalClient, log *logger.Logger, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{
		client:    client,
		log:       log.With("component", "RedisLocker"),
		ttl:       ttl,
		retryWait: defaultRetryWait,
	}
}

func lockKey(chatID uuid.UUID) string {
	return "chat:" + chatID.String() + ":lock"
}

func (rl *RedisLocker) Lock(ctx context.Context, chatID uuid.UUID) (func(), error) {
	key := lockKey(chatID)
	token := uuid.NewString()
	for {
		ok, err := rl.client.SetNX(ctx, key, token, rl.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire chat lock: %w", err)
		}
		if ok {
			break
		}
		t := time.NewTimer(rl.retryWait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			relCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := releaseScript.Run(relCtx, rl.client, []string{key}, token).Err(); err != nil {
				rl.log.Warn("Failed to release chat lock", "chatID", chatID, "error", err)
			}
		})
	}, nil
}
