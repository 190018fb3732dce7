// Package lease provides a short exclusive hold on a named job so that only one
// process runs it at a time.
package lease

import (
	"context"
	"errors"
)

// Lease is taken before a job and handed back after. Acquire reports false
// when another holder has it.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

var ErrNotHeld = errors.New("lease not held")
