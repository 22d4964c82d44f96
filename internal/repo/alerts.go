package repo

import (
	"context"
	"time"
)

// AlertRecord holds the last online/offline state seen for a probe and the
// last time a notification was sent for it (used for cooldown).
type AlertRecord struct {
	Key        string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, key string) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt keeps the previous LastSentAt.
	Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error
}
