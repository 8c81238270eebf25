// Package outbox keeps registration saves that failed during checkout so a
// background worker can replay them instead of losing a paid registration.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const KindRegistration = "registration.save"

type Entry struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

func NewEntry(kind string, payload any) (Entry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Queue is FIFO. Pop returns (nil, nil) when empty.
type Queue interface {
	Push(ctx context.Context, e Entry) error
	Pop(ctx context.Context) (*Entry, error)
	Len(ctx context.Context) (int64, error)
	DeadLetter(ctx context.Context, e Entry) error
	Close() error
}
