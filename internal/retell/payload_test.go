package retell

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func decode(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestBuildAgentPayload_Defaults(t *testing.T) {
	p := decode(t, BuildAgentPayload(AgentSpec{ScenarioType: ScenarioDriverCheckin}, "llm_1"))

	engine, _ := p["response_engine"].(map[string]any)
	if engine["type"] != "retell-llm" || engine["llm_id"] != "llm_1" {
		t.Fatalf("unexpected response engine %v", engine)
	}
	if p["voice_id"] != DefaultVoiceID {
		t.Fatalf("expected default voice, got %v", p["voice_id"])
	}
	if p["enable_backchannel"] != true {
		t.Fatalf("backchannel should default on")
	}
	for _, k := range []string{"agent_name", "language", "ambient_sound", "interruption_sensitivity", "pronunciation_guide", "backchannel_words"} {
		if _, ok := p[k]; ok {
			t.Fatalf("did not expect %q in payload", k)
		}
	}
	schema, _ := p["post_call_analysis_data"].([]any)
	if len(schema) != 8 {
		t.Fatalf("expected 8 check-in fields, got %d", len(schema))
	}
}

func TestBuildAgentPayload_AllSettings(t *testing.T) {
	spec := AgentSpec{
		Name:                    "Dispatch",
		ScenarioType:            ScenarioEmergencyProtocol,
		VoiceID:                 "11labs-Myra",
		Language:                "en-US",
		EnableBackchannel:       boolPtr(true),
		BackchannelWords:        []string{"got it"},
		InterruptionSensitivity: floatPtr(0.7),
		Responsiveness:          floatPtr(0.9),
		AmbientSound:            "call-center",
		AmbientSoundVolume:      floatPtr(0.5),
		PronunciationGuide:      json.RawMessage(`[{"word":"POD","alphabet":"ipa","phoneme":"pɒd"}]`),
	}
	p := decode(t, BuildAgentPayload(spec, "llm_2"))

	if p["agent_name"] != "Dispatch" || p["voice_id"] != "11labs-Myra" || p["language"] != "en-US" {
		t.Fatalf("unexpected identity fields %v", p)
	}
	if words, _ := p["backchannel_words"].([]any); len(words) != 1 {
		t.Fatalf("expected backchannel words, got %v", p["backchannel_words"])
	}
	if p["interruption_sensitivity"] != 0.7 || p["responsiveness"] != 0.9 {
		t.Fatalf("unexpected tuning %v %v", p["interruption_sensitivity"], p["responsiveness"])
	}
	if p["ambient_sound"] != "call-center" || p["ambient_sound_volume"] != 0.5 {
		t.Fatalf("unexpected ambient settings")
	}
	if _, ok := p["pronunciation_guide"].([]any); !ok {
		t.Fatalf("expected pronunciation guide array")
	}
	schema, _ := p["post_call_analysis_data"].([]any)
	if len(schema) != 7 {
		t.Fatalf("expected 7 emergency fields, got %d", len(schema))
	}
}

func TestBuildAgentPayload_BackchannelOffAndAmbientOff(t *testing.T) {
	spec := AgentSpec{
		EnableBackchannel:  boolPtr(false),
		BackchannelWords:   []string{"ignored"},
		AmbientSound:       "off",
		AmbientSoundVolume: floatPtr(1),
	}
	p := decode(t, BuildAgentPayload(spec, "llm_3"))
	for _, k := range []string{"enable_backchannel", "backchannel_words", "ambient_sound", "ambient_sound_volume"} {
		if _, ok := p[k]; ok {
			t.Fatalf("did not expect %q in payload", k)
		}
	}
}

func TestBuildLLMPayload_DefaultVariables(t *testing.T) {
	p := decode(t, BuildLLMPayload("prompt", "hello"))
	if p["general_prompt"] != "prompt" || p["begin_message"] != "hello" {
		t.Fatalf("unexpected payload %v", p)
	}
	vars, _ := p["default_dynamic_variables"].(map[string]any)
	if vars["driver_name"] != "Driver" || vars["load_number"] != "LOAD-000" {
		t.Fatalf("unexpected dynamic variables %v", vars)
	}
}

func TestAnalysisSchema_ReturnsCopy(t *testing.T) {
	a := AnalysisSchema(ScenarioEmergencyProtocol)
	a[0].Name = "mutated"
	if AnalysisSchema(ScenarioEmergencyProtocol)[0].Name != "is_emergency" {
		t.Fatalf("schema should not be shared")
	}
	if len(AnalysisSchema("unknown")) != 8 {
		t.Fatalf("unknown scenario should fall back to check-in schema")
	}
}
