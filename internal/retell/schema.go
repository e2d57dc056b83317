package retell

// AnalysisField describes one value the platform extracts from a finished call.
type AnalysisField struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Choices     []string `json:"choices,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

var emergencyProtocolSchema = []AnalysisField{
	{Type: "boolean", Name: "is_emergency", Description: "Whether this call involves an emergency situation"},
	{Type: "enum", Name: "emergency_type", Description: "Type of emergency if applicable",
		Choices: []string{"accident", "breakdown", "medical", "flat_tire", "other", "none"}},
	{Type: "string", Name: "safety_status", Description: "Driver's confirmation of safety status",
		Examples: []string{"Driver confirmed everyone is safe", "Driver reported unsafe conditions"}},
	{Type: "enum", Name: "injury_status", Description: "Whether there are any injuries",
		Choices: []string{"no_injuries", "injuries_reported", "unknown"}},
	{Type: "string", Name: "location_emergency", Description: "Specific location of the emergency",
		Examples: []string{"I-10 near exit 42", "Mile marker 123 on I-15"}},
	{Type: "boolean", Name: "load_secure", Description: "Whether the load/cargo is secure"},
	{Type: "string", Name: "call_summary", Description: "Brief summary of the emergency call"},
}

var driverCheckinSchema = []AnalysisField{
	{Type: "enum", Name: "call_outcome", Description: "The outcome or purpose of the call",
		Choices: []string{"in_transit_update", "arrival_confirmation", "delay_notification", "other"}},
	{Type: "enum", Name: "driver_status", Description: "Current status of the driver",
		Choices: []string{"driving", "arrived", "unloading", "delayed", "other"}},
	{Type: "string", Name: "current_location", Description: "Driver's current location",
		Examples: []string{"I-10 near Phoenix", "Exit 42 on I-15", "At delivery location"}},
	{Type: "string", Name: "eta", Description: "Estimated time of arrival",
		Examples: []string{"Tomorrow at 8 AM", "In 2 hours", "Around 3 PM today"}},
	{Type: "string", Name: "delay_reason", Description: "Reason for any delays if mentioned",
		Examples: []string{"Heavy traffic", "Weather conditions", "No delays"}},
	{Type: "string", Name: "unloading_status", Description: "Status of unloading if driver has arrived",
		Examples: []string{"At dock 12", "Waiting for door assignment", "N/A"}},
	{Type: "boolean", Name: "pod_reminder_acknowledged", Description: "Whether driver acknowledged the POD reminder"},
	{Type: "string", Name: "call_summary", Description: "Brief summary of the check-in call"},
}

// AnalysisSchema returns the extraction schema for a scenario.
// Anything other than emergency_protocol gets the check-in schema.
func AnalysisSchema(s ScenarioType) []AnalysisField {
	src := driverCheckinSchema
	if s == ScenarioEmergencyProtocol {
		src = emergencyProtocolSchema
	}
	out := make([]AnalysisField, len(src))
	copy(out, src)
	return out
}
