package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"voice-dispatch/pkg/logger"
)

// WebhookEvent is the part of a platform webhook body the dispatcher reads.
type WebhookEvent struct {
	Type   string
	CallID string
}

type webhookBody struct {
	EventType string `json:"event_type"`
	Event     string `json:"event"`
	CallID    string `json:"call_id"`
	Call      *struct {
		CallID string `json:"call_id"`
	} `json:"call"`
}

// ParseWebhook reads the event name from event_type (or event) and the call id
// from call_id (or call.call_id).
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var b webhookBody
	if err := json.Unmarshal(body, &b); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: webhook body: %v", ErrInvalidArgument, err)
	}
	ev := WebhookEvent{Type: b.EventType, CallID: b.CallID}
	if ev.Type == "" {
		ev.Type = b.Event
	}
	if ev.CallID == "" && b.Call != nil {
		ev.CallID = b.Call.CallID
	}
	return ev, nil
}

const (
	DispatchStatusSuccess = "success"
	DispatchStatusError   = "error"
)

// DispatchResult is the JSON body returned to the platform.
type DispatchResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Dispatcher applies webhook deliveries to local call records. Each delivery is
// handled on its own; there is no ordering between deliveries for one call.
type Dispatcher struct {
	svc *Service
}

func NewDispatcher(svc *Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

// Dispatch returns a soft error result for deliveries it cannot attach to a call,
// and a Go error only for failures the platform should see as a 5xx.
func (d *Dispatcher) Dispatch(ctx context.Context, ev WebhookEvent) (DispatchResult, error) {
	log := logger.From(ctx).With("event_type", ev.Type, "retell_call_id", ev.CallID)

	if ev.CallID == "" {
		log.Error("webhook without call_id")
		return DispatchResult{Status: DispatchStatusError, Message: "No call_id in webhook"}, nil
	}

	c, err := d.svc.repo.GetByRemoteID(ctx, ev.CallID, "")
	if errors.Is(err, ErrNotFound) {
		log.Error("webhook for unknown call")
		return DispatchResult{Status: DispatchStatusError, Message: "Call not found"}, nil
	}
	if err != nil {
		return DispatchResult{}, fmt.Errorf("lookup call %s: %w", ev.CallID, err)
	}

	status, ok := StatusForEvent(ev.Type)
	if !ok {
		log.Info("webhook event not handled")
		return DispatchResult{Status: DispatchStatusSuccess, Message: "Event type not handled"}, nil
	}

	ctx = logger.With(ctx, log.With("call_id", c.ID))
	switch ev.Type {
	case EventCallEnded:
		err = d.callEnded(ctx, c)
	case EventCallAnalyzed:
		err = d.callAnalyzed(ctx, c, status)
	default:
		_, err = d.svc.ApplyStatus(ctx, c, status, nil)
	}
	if err != nil {
		return DispatchResult{}, err
	}

	log.Info("webhook processed", "status", status)
	return DispatchResult{Status: DispatchStatusSuccess}, nil
}

// callEnded marks the call completed with whatever details the platform has.
// A failed fetch still completes the call and is then returned to the caller.
func (d *Dispatcher) callEnded(ctx context.Context, c Call) error {
	log := logger.From(ctx)

	details, fetchErr := d.svc.remote.GetCall(ctx, c.remoteID())
	if fetchErr != nil {
		log.Error("call details fetch failed", "err", fetchErr)
		if _, err := d.svc.ApplyStatus(ctx, c, CallStatusCompleted, nil); err != nil {
			return errors.Join(fetchErr, err)
		}
		return fetchErr
	}
	if details == nil {
		log.Warn("call details not available, completing without them")
		_, err := d.svc.ApplyStatus(ctx, c, CallStatusCompleted, nil)
		return err
	}

	updated, err := d.svc.ApplyStatus(ctx, c, CallStatusCompleted, timesFromDetails(details))
	if err != nil {
		return err
	}
	d.svc.persistDetails(ctx, updated, details)
	return nil
}

// callAnalyzed applies the mapped status and upserts results. Fetch failures are swallowed.
func (d *Dispatcher) callAnalyzed(ctx context.Context, c Call, status CallStatus) error {
	log := logger.From(ctx)

	updated, err := d.svc.ApplyStatus(ctx, c, status, nil)
	if err != nil {
		return err
	}

	details, err := d.svc.remote.GetCall(ctx, c.remoteID())
	if err != nil {
		log.Error("call details fetch failed", "err", err)
		return nil
	}
	if !details.HasAnalysis() {
		log.Warn("no call analysis available")
		return nil
	}
	d.svc.saveResults(ctx, updated, details.CallAnalysis)
	return nil
}
