package invitation

import (
	"context"
	"time"
)

type EventType string

const (
	EventIssued   EventType = "invitation.issued"
	EventAccepted EventType = "invitation.accepted"
	EventRejected EventType = "invitation.rejected"
	EventGranted  EventType = "nominee.granted"
)

// Event is emitted on every invitation state change. It never carries the token.
type Event struct {
	Type         EventType `json:"type"`
	Kind         Kind      `json:"kind"`
	RecordID     string    `json:"record_id"`
	OwnerID      string    `json:"owner_id"`
	InviteeEmail string    `json:"invitee_email"`
	Status       Status    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func ResponseEvent(action Action) EventType {
	if action == ActionAccept {
		return EventAccepted
	}
	return EventRejected
}
