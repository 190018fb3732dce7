// Package verification holds the short-lived email verification challenges
// that gate creating a task for an unconfirmed customer address.
package verification

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const (
	CodeLength = 6
	CodeTTL    = 15 * time.Minute

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Store keeps at most one live challenge per normalized email address.
type Store interface {
	Issue(ctx context.Context, email string) (string, error)
	Confirm(ctx context.Context, email, code string) error
	IsVerified(ctx context.Context, email string) (bool, error)
}

type challenge struct {
	Code      string
	ExpiresAt time.Time
	Verified  bool
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func codesMatch(stored, given string) bool {
	return strings.EqualFold(stored, strings.TrimSpace(given))
}
