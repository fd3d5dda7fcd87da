package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrLockTimeout = errors.New("timed out waiting for item lock")

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the lock only while it still carries our token, so an
// expired holder never releases a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// ItemLocker serialises work on one item across server instances.
type ItemLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewItemLocker(client *redis.Client, ttl, wait time.Duration) *ItemLocker {
	return &ItemLocker{client: client, ttl: ttl, wait: wait}
}

// Lock blocks until the item lock is held, ctx is done or the wait budget is
// spent. The returned func releases the lock.
func (l *ItemLocker) Lock(ctx context.Context, itemKey string) (func(), error) {
	key := ItemLockKey(itemKey)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire item lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *ItemLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release item lock")
	}
}
