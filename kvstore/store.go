package kvstore

import (
	"context"
	"time"

	apperrors "github.com/epdlink/adproxy/internal/errors"
)

// ErrNotFound is returned by Get when a key is absent or its entry has expired.
// The two cases are indistinguishable on purpose: expiry is enforced here, not
// re-checked by callers.
var ErrNotFound = apperrors.ErrNotFound

// Store defines the interface for TTL key/value storage operations.
// Implementations must be safe for concurrent use.
type Store interface {
	// Set stores a value under key for at most ttl
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get retrieves a live value, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Delete removes a key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}
