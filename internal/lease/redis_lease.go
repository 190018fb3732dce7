package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

var releaseScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a SET NX PX lock. The ttl bounds how long a crashed holder can
// block the others.
type RedisLease struct {
	client rueidis.Client
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

func NewRedisLease(client rueidis.Client, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (r *RedisLease) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()

	cmd := r.client.B().Set().Key(r.key).Value(token).Nx().PxMilliseconds(r.ttl.Milliseconds()).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return false, nil
		}
		return false, err
	}

	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return true, nil
}

// Release deletes the key only while it still carries this holder's token.
func (r *RedisLease) Release(ctx context.Context) error {
	r.mu.Lock()
	token := r.token
	r.token = ""
	r.mu.Unlock()

	if token == "" {
		return ErrNotHeld
	}

	deleted, err := releaseScript.Exec(ctx, r.client, []string{r.key}, []string{token}).AsInt64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
