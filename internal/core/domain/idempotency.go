package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog is the durable record of a completed balance-affecting
// request, keyed by the caller-supplied reference. It backs the Redis
// fast path when the cache is cold or unavailable.
type IdempotencyLog struct {
	Key          string    `json:"key"`
	EventKind    EventKind `json:"event_kind"`
	EventID      uuid.UUID `json:"event_id"`
	ResponseJSON []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// BuildIdempotencyKey derives the idempotency key for a balance-affecting
// request from the acting user, the event kind and the client reference.
func BuildIdempotencyKey(userID uuid.UUID, kind EventKind, referenceID string) string {
	return fmt.Sprintf("%s:%s:%s", userID.String(), kind, referenceID)
}
