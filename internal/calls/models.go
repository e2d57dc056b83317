package calls

import (
	"encoding/json"
	"errors"
	"time"

	"voice-dispatch/internal/retell"
)

// Call is one outbound phone or browser call placed through the voice platform.
// It is owned by the user who placed it; every read filters on UserID.
type Call struct {
	ID                   string  `json:"id"`
	UserID               string  `json:"user_id"`
	AgentConfigurationID *string `json:"agent_configuration_id"`

	CallType    CallType `json:"call_type"`
	DriverName  string   `json:"driver_name"`
	PhoneNumber string   `json:"phone_number"`
	LoadNumber  string   `json:"load_number"`

	// RetellCallID links the row to the platform call; webhooks resolve through it.
	RetellCallID *string `json:"retell_call_id"`

	Status CallStatus `json:"status"`

	InitiatedAt     time.Time  `json:"initiated_at"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds *int       `json:"duration_seconds"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Call) remoteID() string {
	if c.RetellCallID == nil {
		return ""
	}
	return *c.RetellCallID
}

type CallType string

const (
	CallTypePhone CallType = "phone"
	CallTypeWeb   CallType = "web"
)

type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// WebCallPhoneNumber stands in for the phone number of browser calls.
const WebCallPhoneNumber = "WEB_CALL"

// CallTimes carries the detail fields applied alongside a status change.
// Nil members leave the stored value untouched.
type CallTimes struct {
	StartedAt       *time.Time
	EndedAt         *time.Time
	DurationSeconds *int
}

// Transcript is written at most once per call and never overwritten.
type Transcript struct {
	ID             string          `json:"id"`
	CallID         string          `json:"call_id"`
	Transcript     string          `json:"transcript"`
	TranscriptJSON json.RawMessage `json:"transcript_json"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Results holds the structured outcome extracted from a call.
// Check-in and emergency field groups are mutually exclusive; IsEmergency picks one.
type Results struct {
	ID           string              `json:"id"`
	CallID       string              `json:"call_id"`
	ScenarioType retell.ScenarioType `json:"scenario_type"`
	IsEmergency  bool                `json:"is_emergency"`
	CallSummary  string              `json:"call_summary"`

	CallOutcome *string `json:"call_outcome"`

	DriverStatus            *string `json:"driver_status"`
	CurrentLocation         *string `json:"current_location"`
	ETA                     *string `json:"eta"`
	DelayReason             *string `json:"delay_reason"`
	UnloadingStatus         *string `json:"unloading_status"`
	PODReminderAcknowledged *bool   `json:"pod_reminder_acknowledged"`

	EmergencyType     *string `json:"emergency_type"`
	SafetyStatus      *string `json:"safety_status"`
	InjuryStatus      *string `json:"injury_status"`
	LocationEmergency *string `json:"location_emergency"`
	LoadSecure        *bool   `json:"load_secure"`

	// AnalysisData is the untouched platform analysis payload.
	AnalysisData json.RawMessage `json:"analysis_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullCall bundles a call with its dependent records. Transcript and Results
// are nil until the platform has reported them.
type FullCall struct {
	Call       Call        `json:"call"`
	Transcript *Transcript `json:"transcript"`
	Results    *Results    `json:"results"`
}

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
	ErrNoRemoteCall    = errors.New("calls: call has no remote id")
)
