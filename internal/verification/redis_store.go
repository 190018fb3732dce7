package verification

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
)

// markVerifiedScript only touches a challenge that still exists, so a key that
// expired after it was read is not recreated without its deadline.
var markVerifiedScript = rueidis.NewLuaScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "verified", "1")
return 1
`)

// RedisStore shares challenges between service instances. Each challenge is a
// hash that Redis expires at the challenge deadline.
type RedisStore struct {
	client rueidis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client rueidis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(email string) string {
	return s.prefix + NormalizeEmail(email)
}

func (s *RedisStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	key := s.key(email)
	expiresAt := s.now().Add(CodeTTL)

	cmds := rueidis.Commands{
		s.client.B().Del().Key(key).Build(),
		s.client.B().Hset().Key(key).FieldValue().
			FieldValue("code", code).
			FieldValue("expires_at", strconv.FormatInt(expiresAt.UnixMilli(), 10)).
			FieldValue("verified", "0").
			Build(),
		s.client.B().Pexpireat().Key(key).MillisecondsTimestamp(expiresAt.UnixMilli()).Build(),
	}
	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return "", err
		}
	}

	return code, nil
}

func (s *RedisStore) load(ctx context.Context, key string) (challenge, bool, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return challenge{}, false, nil
		}
		return challenge{}, false, err
	}
	if len(fields) == 0 || fields["expires_at"] == "" {
		return challenge{}, false, nil
	}

	millis, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return challenge{}, false, err
	}

	return challenge{
		Code:      fields["code"],
		ExpiresAt: time.UnixMilli(millis),
		Verified:  fields["verified"] == "1",
	}, true, nil
}

func (s *RedisStore) Confirm(ctx context.Context, email, code string) error {
	key := s.key(email)

	ch, ok, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNoChallengePending
	}
	if s.now().After(ch.ExpiresAt) {
		_ = s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error()
		return apperrors.ErrChallengeExpired
	}
	if !codesMatch(ch.Code, code) {
		return apperrors.ErrCodeMismatch
	}

	return s.markVerified(ctx, key)
}

func (s *RedisStore) markVerified(ctx context.Context, key string) error {
	marked, err := markVerifiedScript.Exec(ctx, s.client, []string{key}, nil).AsInt64()
	if err != nil {
		return err
	}
	if marked == 0 {
		return apperrors.ErrChallengeExpired
	}
	return nil
}

func (s *RedisStore) IsVerified(ctx context.Context, email string) (bool, error) {
	ch, ok, err := s.load(ctx, s.key(email))
	if err != nil || !ok {
		return false, err
	}
	return ch.Verified && !s.now().After(ch.ExpiresAt), nil
}
