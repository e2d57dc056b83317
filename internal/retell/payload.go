package retell

import (
	"encoding/json"
)

// ScenarioType selects the post-call analysis schema an agent is created with.
type ScenarioType string

const (
	ScenarioDriverCheckin     ScenarioType = "driver_checkin"
	ScenarioEmergencyProtocol ScenarioType = "emergency_protocol"
)

func (s ScenarioType) Valid() bool {
	return s == ScenarioDriverCheckin || s == ScenarioEmergencyProtocol
}

const (
	DefaultVoiceID   = "11labs-Adrian"
	ambientSoundOff  = "off"
	llmTypeRetellLLM = "retell-llm"
)

// AgentSpec is the subset of an agent configuration the platform needs.
type AgentSpec struct {
	Name            string
	ScenarioType    ScenarioType
	SystemPrompt    string
	InitialGreeting string

	VoiceID                 string
	Language                string
	EnableBackchannel       *bool
	BackchannelWords        []string
	InterruptionSensitivity *float64
	Responsiveness          *float64
	AmbientSound            string
	AmbientSoundVolume      *float64
	PronunciationGuide      json.RawMessage
}

type llmPayload struct {
	GeneralPrompt           string            `json:"general_prompt"`
	BeginMessage            string            `json:"begin_message"`
	DefaultDynamicVariables map[string]string `json:"default_dynamic_variables"`
}

// BuildLLMPayload seeds the dynamic variables so prompts render before a call supplies them.
func BuildLLMPayload(systemPrompt, greeting string) llmPayload {
	return llmPayload{
		GeneralPrompt: systemPrompt,
		BeginMessage:  greeting,
		DefaultDynamicVariables: map[string]string{
			"driver_name": "Driver",
			"load_number": "LOAD-000",
		},
	}
}

type responseEngine struct {
	Type  string `json:"type"`
	LLMID string `json:"llm_id"`
}

type agentPayload struct {
	ResponseEngine          responseEngine  `json:"response_engine"`
	VoiceID                 string          `json:"voice_id"`
	AgentName               string          `json:"agent_name,omitempty"`
	Language                string          `json:"language,omitempty"`
	EnableBackchannel       bool            `json:"enable_backchannel,omitempty"`
	BackchannelWords        []string        `json:"backchannel_words,omitempty"`
	InterruptionSensitivity *float64        `json:"interruption_sensitivity,omitempty"`
	Responsiveness          *float64        `json:"responsiveness,omitempty"`
	AmbientSound            string          `json:"ambient_sound,omitempty"`
	AmbientSoundVolume      *float64        `json:"ambient_sound_volume,omitempty"`
	PronunciationGuide      json.RawMessage `json:"pronunciation_guide,omitempty"`
	PostCallAnalysisData    []AnalysisField `json:"post_call_analysis_data"`
}

// BuildAgentPayload maps an agent spec onto the create-agent request.
// Unset optional settings are left out so platform defaults apply.
func BuildAgentPayload(spec AgentSpec, llmID string) agentPayload {
	p := agentPayload{
		ResponseEngine:       responseEngine{Type: llmTypeRetellLLM, LLMID: llmID},
		VoiceID:              spec.VoiceID,
		AgentName:            spec.Name,
		Language:             spec.Language,
		PostCallAnalysisData: AnalysisSchema(spec.ScenarioType),
	}
	if p.VoiceID == "" {
		p.VoiceID = DefaultVoiceID
	}

	if spec.EnableBackchannel == nil || *spec.EnableBackchannel {
		p.EnableBackchannel = true
		if len(spec.BackchannelWords) > 0 {
			p.BackchannelWords = spec.BackchannelWords
		}
	}
	p.InterruptionSensitivity = spec.InterruptionSensitivity
	p.Responsiveness = spec.Responsiveness

	if spec.AmbientSound != "" && spec.AmbientSound != ambientSoundOff {
		p.AmbientSound = spec.AmbientSound
		p.AmbientSoundVolume = spec.AmbientSoundVolume
	}
	if !isEmptyJSON(spec.PronunciationGuide) {
		p.PronunciationGuide = spec.PronunciationGuide
	}
	return p
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
