package calls

// Webhook event names sent by the voice platform.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
	EventCallFailed   = "call_failed"
)

var eventStatus = map[string]CallStatus{
	EventCallStarted:  CallStatusInProgress,
	EventCallEnded:    CallStatusCompleted,
	EventCallAnalyzed: CallStatusCompleted,
	EventCallFailed:   CallStatusFailed,
}

// StatusForEvent maps a webhook event name to the local status it implies.
// ok is false for events that do not move the call.
func StatusForEvent(event string) (status CallStatus, ok bool) {
	status, ok = eventStatus[event]
	return status, ok
}

// call_status values reported by get-call.
var remoteStatus = map[string]CallStatus{
	"registered":    CallStatusInitiated,
	"ongoing":       CallStatusInProgress,
	"ended":         CallStatusCompleted,
	"error":         CallStatusFailed,
	"not_connected": CallStatusFailed,
}

// StatusForRemote maps a platform call_status onto a local status.
func StatusForRemote(s string) (status CallStatus, ok bool) {
	status, ok = remoteStatus[s]
	return status, ok
}
