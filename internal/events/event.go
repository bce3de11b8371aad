// Package events delivers roster changes to the configured sinks after the
// registry has accepted them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSignedUp     Type = "signed_up"
	TypeUnregistered Type = "unregistered"
)

// Event describes one accepted roster change.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Activity   string    `json:"activity"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(t Type, activity, email string) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		Activity:   activity,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

// Sink receives events. Deliver must honor ctx.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}
