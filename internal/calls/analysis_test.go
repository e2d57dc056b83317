package calls

import (
	"encoding/json"
	"errors"
	"testing"

	"voice-dispatch/internal/retell"
)

func TestNormalizeAnalysis_CheckinFromCustomData(t *testing.T) {
	raw := json.RawMessage(`{
		"call_summary": "Driver on I-10, arriving 8am.",
		"user_sentiment": "Positive",
		"custom_analysis_data": {
			"call_outcome": "in_transit_update",
			"driver_status": "driving",
			"current_location": "I-10 near Phoenix",
			"eta": "Tomorrow at 8 AM",
			"delay_reason": "No delays",
			"unloading_status": "N/A",
			"pod_reminder_acknowledged": true,
			"emergency_type": "accident"
		}
	}`)

	r, err := NormalizeAnalysis("c1", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.IsEmergency || r.ScenarioType != retell.ScenarioDriverCheckin {
		t.Fatalf("expected check-in, got %+v", r)
	}
	if r.CallSummary != "Driver on I-10, arriving 8am." {
		t.Fatalf("expected top-level summary, got %q", r.CallSummary)
	}
	if r.CallOutcome == nil || *r.CallOutcome != "in_transit_update" {
		t.Fatalf("unexpected outcome %v", r.CallOutcome)
	}
	if r.ETA == nil || *r.ETA != "Tomorrow at 8 AM" || r.PODReminderAcknowledged == nil || !*r.PODReminderAcknowledged {
		t.Fatalf("check-in fields not mapped: %+v", r)
	}
	if r.EmergencyType != nil || r.SafetyStatus != nil || r.LocationEmergency != nil || r.LoadSecure != nil {
		t.Fatalf("emergency fields must stay empty for check-in")
	}
	if string(r.AnalysisData) != string(raw) {
		t.Fatalf("raw analysis must be kept verbatim")
	}
}

func TestNormalizeAnalysis_EmergencyOmitsCheckinFields(t *testing.T) {
	raw := json.RawMessage(`{
		"custom_analysis_data": {
			"is_emergency": true,
			"emergency_type": "breakdown",
			"safety_status": "Driver confirmed everyone is safe",
			"injury_status": "no_injuries",
			"location_emergency": "Mile marker 123 on I-15",
			"load_secure": false,
			"driver_status": "driving",
			"call_summary": "Truck broke down."
		}
	}`)

	r, err := NormalizeAnalysis("c1", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !r.IsEmergency || r.ScenarioType != retell.ScenarioEmergencyProtocol {
		t.Fatalf("expected emergency, got %+v", r)
	}
	if r.CallOutcome == nil || *r.CallOutcome != "emergency_escalation" {
		t.Fatalf("expected emergency_escalation outcome, got %v", r.CallOutcome)
	}
	if r.EmergencyType == nil || *r.EmergencyType != "breakdown" ||
		r.SafetyStatus == nil || r.InjuryStatus == nil ||
		r.LocationEmergency == nil || *r.LocationEmergency != "Mile marker 123 on I-15" ||
		r.LoadSecure == nil || *r.LoadSecure {
		t.Fatalf("emergency fields not mapped: %+v", r)
	}
	if r.DriverStatus != nil || r.CurrentLocation != nil || r.ETA != nil || r.DelayReason != nil ||
		r.UnloadingStatus != nil || r.PODReminderAcknowledged != nil {
		t.Fatalf("check-in fields must stay empty for emergencies: %+v", r)
	}
	if r.CallSummary != "Truck broke down." {
		t.Fatalf("expected source summary fallback, got %q", r.CallSummary)
	}
}

func TestNormalizeAnalysis_EmergencyLocationFallbackKey(t *testing.T) {
	raw := json.RawMessage(`{"is_emergency": true, "emergency_location": "Exit 42"}`)
	r, err := NormalizeAnalysis("c1", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.LocationEmergency == nil || *r.LocationEmergency != "Exit 42" {
		t.Fatalf("expected fallback key to be read, got %v", r.LocationEmergency)
	}
}

func TestNormalizeAnalysis_FallsBackToTopLevelSource(t *testing.T) {
	raw := json.RawMessage(`{"custom_analysis_data": {}, "call_outcome": "other", "driver_status": "arrived"}`)
	r, err := NormalizeAnalysis("c1", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.DriverStatus == nil || *r.DriverStatus != "arrived" {
		t.Fatalf("expected top-level source when custom data is empty, got %+v", r)
	}
	if r.CallSummary != "" {
		t.Fatalf("expected empty summary, got %q", r.CallSummary)
	}
}

func TestNormalizeAnalysis_NoCoercion(t *testing.T) {
	raw := json.RawMessage(`{"is_emergency": "true", "eta": 5, "pod_reminder_acknowledged": null}`)
	r, err := NormalizeAnalysis("c1", raw)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.IsEmergency {
		t.Fatalf("string is_emergency must not count as true")
	}
	if r.ETA != nil || r.PODReminderAcknowledged != nil {
		t.Fatalf("mistyped or null values must be treated as absent: %+v", r)
	}
}

func TestNormalizeAnalysis_RejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `null`, `not json`} {
		if _, err := NormalizeAnalysis("c1", json.RawMessage(raw)); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for %s, got %v", raw, err)
		}
	}
}
