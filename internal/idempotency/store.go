package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// State tracks the lifecycle of a claimed key.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)

// ErrNotFound is returned by Store.Get when no record exists for a key.
var ErrNotFound = errors.New("idempotency record not found")

// Record is the persisted outcome of the first request seen for a key.
// Exactly one of Response or ErrorCode is set once State is completed.
type Record struct {
	Fingerprint  string          `json:"fingerprint"`
	State        State           `json:"state"`
	Response     json.RawMessage `json:"response,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Store persists idempotency records.
type Store interface {
	// Claim inserts a pending record. It returns false when the key is
	// already held by another request.
	Claim(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, error)
	// Complete replaces the pending record with its final outcome.
	Complete(ctx context.Context, key string, record Record, ttl time.Duration) error
	// Release drops a pending claim so the key can be retried.
	Release(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (*Record, error)
}
