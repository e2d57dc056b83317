package events

import (
	"context"
	"testing"
	"time"
)

func TestService_PublishRequiresTypeAndCall(t *testing.T) {
	svc := NewService(NewMemoryPublisher())

	if err := svc.Publish(context.Background(), Event{CallID: "c"}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Publish(context.Background(), Event{Type: TypeCallStatusChanged}); err != ErrInvalidEvent {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_CallStatusChangedStampsEvent(t *testing.T) {
	pub := NewMemoryPublisher()
	svc := NewService(pub)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	if err := svc.CallStatusChanged(context.Background(), "c1", "call_1", "u1", "completed"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := pub.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evs))
	}
	e := evs[0]
	if e.ID == "" || !e.OccurredAt.Equal(fixed) {
		t.Fatalf("expected id and timestamp, got %+v", e)
	}
	if e.Type != TypeCallStatusChanged || e.Status != "completed" || e.RemoteCallID != "call_1" {
		t.Fatalf("unexpected event %+v", e)
	}
}

func TestNewService_NilPublisherIsNop(t *testing.T) {
	svc := NewService(nil)
	if err := svc.CallStatusChanged(context.Background(), "c1", "", "u1", "failed"); err != nil {
		t.Fatalf("nop publisher should not fail: %v", err)
	}
}

func TestNewRedisPublisher_DefaultChannel(t *testing.T) {
	p := NewRedisPublisher(nil, "")
	if p.channel != DefaultChannel {
		t.Fatalf("expected default channel, got %q", p.channel)
	}
}
