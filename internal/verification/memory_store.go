package verification

import (
	"context"
	"sync"
	"time"

	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
)

// MemoryStore is process-local. Expired entries stay in the map until they are
// overwritten, confirmed after expiry, or the process restarts.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]challenge
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]challenge),
		now:        now,
	}
}

func (s *MemoryStore) Issue(_ context.Context, email string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[NormalizeEmail(email)] = challenge{
		Code:      code,
		ExpiresAt: s.now().Add(CodeTTL),
	}
	return code, nil
}

func (s *MemoryStore) Confirm(_ context.Context, email, code string) error {
	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[key]
	if !ok {
		return apperrors.ErrNoChallengePending
	}
	if s.now().After(ch.ExpiresAt) {
		delete(s.challenges, key)
		return apperrors.ErrChallengeExpired
	}
	if !codesMatch(ch.Code, code) {
		return apperrors.ErrCodeMismatch
	}

	ch.Verified = true
	s.challenges[key] = ch
	return nil
}

func (s *MemoryStore) IsVerified(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[NormalizeEmail(email)]
	if !ok || !ch.Verified {
		return false, nil
	}
	return !s.now().After(ch.ExpiresAt), nil
}
