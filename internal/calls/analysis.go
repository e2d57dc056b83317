package calls

import (
	"bytes"
	"encoding/json"
	"fmt"

	"voice-dispatch/internal/retell"
)

const emergencyOutcome = "emergency_escalation"

// analysisSource is the set of values read from the platform analysis.
// Each member is nil when the key is absent or holds a value of another JSON type.
type analysisSource struct {
	IsEmergency *bool
	CallSummary *string

	CallOutcome             *string
	DriverStatus            *string
	CurrentLocation         *string
	ETA                     *string
	DelayReason             *string
	UnloadingStatus         *string
	PODReminderAcknowledged *bool

	EmergencyType     *string
	SafetyStatus      *string
	InjuryStatus      *string
	LocationEmergency *string
	LoadSecure        *bool
}

func readSource(m map[string]json.RawMessage) analysisSource {
	loc := stringField(m, "location_emergency")
	if loc == nil {
		loc = stringField(m, "emergency_location")
	}
	return analysisSource{
		IsEmergency: boolField(m, "is_emergency"),
		CallSummary: stringField(m, "call_summary"),

		CallOutcome:             stringField(m, "call_outcome"),
		DriverStatus:            stringField(m, "driver_status"),
		CurrentLocation:         stringField(m, "current_location"),
		ETA:                     stringField(m, "eta"),
		DelayReason:             stringField(m, "delay_reason"),
		UnloadingStatus:         stringField(m, "unloading_status"),
		PODReminderAcknowledged: boolField(m, "pod_reminder_acknowledged"),

		EmergencyType:     stringField(m, "emergency_type"),
		SafetyStatus:      stringField(m, "safety_status"),
		InjuryStatus:      stringField(m, "injury_status"),
		LocationEmergency: loc,
		LoadSecure:        boolField(m, "load_secure"),
	}
}

// NormalizeAnalysis reshapes a platform call analysis into a Results row for callID.
//
// Values come from custom_analysis_data when it is a non-empty object, otherwise
// from the analysis itself. is_emergency (default false) selects the emergency
// or the check-in field group; the other group stays nil.
func NormalizeAnalysis(callID string, raw json.RawMessage) (Results, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return Results{}, fmt.Errorf("%w: call analysis must be a JSON object", ErrInvalidArgument)
	}

	srcMap := top
	if customRaw, ok := top["custom_analysis_data"]; ok {
		var custom map[string]json.RawMessage
		if err := json.Unmarshal(customRaw, &custom); err == nil && len(custom) > 0 {
			srcMap = custom
		}
	}
	src := readSource(srcMap)

	r := Results{
		CallID:       callID,
		ScenarioType: retell.ScenarioDriverCheckin,
		AnalysisData: raw,
	}
	if src.IsEmergency != nil && *src.IsEmergency {
		r.IsEmergency = true
		r.ScenarioType = retell.ScenarioEmergencyProtocol
	}

	switch {
	case stringField(top, "call_summary") != nil:
		r.CallSummary = *stringField(top, "call_summary")
	case src.CallSummary != nil:
		r.CallSummary = *src.CallSummary
	}

	if r.IsEmergency {
		outcome := emergencyOutcome
		r.CallOutcome = &outcome
		r.EmergencyType = src.EmergencyType
		r.SafetyStatus = src.SafetyStatus
		r.InjuryStatus = src.InjuryStatus
		r.LocationEmergency = src.LocationEmergency
		r.LoadSecure = src.LoadSecure
		return r, nil
	}

	r.CallOutcome = src.CallOutcome
	r.DriverStatus = src.DriverStatus
	r.CurrentLocation = src.CurrentLocation
	r.ETA = src.ETA
	r.DelayReason = src.DelayReason
	r.UnloadingStatus = src.UnloadingStatus
	r.PODReminderAcknowledged = src.PODReminderAcknowledged
	return r, nil
}

func stringField(m map[string]json.RawMessage, key string) *string {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func boolField(m map[string]json.RawMessage, key string) *bool {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	return &b
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
