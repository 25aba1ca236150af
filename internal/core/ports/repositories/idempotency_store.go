package repositories

import (
	"context"
	"time"
)

// IdempotencyPending is the value held by a reserved key whose request has not finished.
const IdempotencyPending = "pending"

// IdempotencyStore remembers which movement a client-supplied idempotency key produced.
type IdempotencyStore interface {
	// Reserve claims key for ttl. When the key is already held it returns false and the
	// stored value: IdempotencyPending, or the movement ID of a completed request.
	Reserve(ctx context.Context, key string, ttl time.Duration) (existing string, reserved bool, err error)

	// Complete records the movement produced for a reserved key.
	Complete(ctx context.Context, key, movementID string, ttl time.Duration) error

	// Release drops a reservation so the client may retry.
	Release(ctx context.Context, key string) error
}
