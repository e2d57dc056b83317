package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Service stamps and validates events before handing them to a Publisher.
// Callers treat publishing as best-effort and never fail a request on it.
type Service struct {
	pub   Publisher
	clock func() time.Time
}

func NewService(pub Publisher) *Service {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Service{pub: pub, clock: time.Now}
}

var ErrInvalidEvent = errors.New("events: invalid event")

func (s *Service) Publish(ctx context.Context, e Event) error {
	if e.Type == "" || e.CallID == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.clock().UTC()
	}
	return s.pub.Publish(ctx, e)
}

// CallStatusChanged records that a call moved to status.
func (s *Service) CallStatusChanged(ctx context.Context, callID, remoteCallID, userID, status string) error {
	return s.Publish(ctx, Event{
		Type:         TypeCallStatusChanged,
		CallID:       callID,
		RemoteCallID: remoteCallID,
		UserID:       userID,
		Status:       status,
	})
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
