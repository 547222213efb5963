// Package errorvault persists structured failure records under random opaque
// ids so that diagnostic detail stays server-side. The browser only ever sees
// the id.
package errorvault

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epdlink/adproxy/kvstore"
)

const keyPrefix = "error:"

// Record is one captured failure. Serialized as JSON so the error page can
// render it without a schema.
type Record struct {
	Message string    `json:"message"`
	Stack   string    `json:"stack"`
	Path    string    `json:"path"`
	TimeUTC time.Time `json:"timeUtc"`
}

// Vault stores and retrieves error records with a fixed TTL.
type Vault struct {
	store kvstore.Store
	ttl   time.Duration
}

// New creates a Vault. Records expire after ttl; there is no explicit delete.
func New(store kvstore.Store, ttl time.Duration) *Vault {
	return &Vault{store: store, ttl: ttl}
}

// Store writes the record under a fresh opaque id and returns the id.
// When the write fails the caller redirects without an id; nothing here
// propagates further than the returned error.
func (v *Vault) Store(ctx context.Context, record Record) (string, error) {
	errorID := newErrorID()

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal error record: %w", err)
	}
	if err := v.store.Set(ctx, keyPrefix+errorID, string(payload), v.ttl); err != nil {
		return "", fmt.Errorf("store error record: %w", err)
	}

	return errorID, nil
}

// Retrieve reads a record by id. Absent (expired, never existed) is a normal
// outcome, reported via the bool, not an error.
func (v *Vault) Retrieve(ctx context.Context, errorID string) (Record, bool, error) {
	payload, err := v.store.Get(ctx, keyPrefix+errorID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read error record %q: %w", errorID, err)
	}

	var record Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return Record{}, false, fmt.Errorf("unmarshal error record %q: %w", errorID, err)
	}

	return record, true, nil
}

// newErrorID returns 32 lowercase hex characters. Collision probability over
// a 1-hour window is negligible.
func newErrorID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
