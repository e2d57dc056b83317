package agents

import (
	"encoding/json"
	"errors"
	"time"

	"voice-dispatch/internal/retell"
)

// Agent is a user's voice agent configuration. RetellAgentID and RetellLLMID
// stay nil until the first call through the agent provisions it remotely.
type Agent struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`

	ScenarioType    retell.ScenarioType `json:"scenario_type"`
	SystemPrompt    string              `json:"system_prompt"`
	InitialGreeting string              `json:"initial_greeting"`

	VoiceID                 string          `json:"voice_id"`
	Language                string          `json:"language"`
	EnableBackchannel       bool            `json:"enable_backchannel"`
	BackchannelWords        []string        `json:"backchannel_words"`
	InterruptionSensitivity float64         `json:"interruption_sensitivity"`
	ResponseDelayMS         int             `json:"response_delay_ms"`
	Responsiveness          *float64        `json:"responsiveness"`
	AmbientSound            *string         `json:"ambient_sound"`
	AmbientSoundVolume      *float64        `json:"ambient_sound_volume"`
	MaxCallDurationSeconds  int             `json:"max_call_duration_seconds"`
	PronunciationGuide      json.RawMessage `json:"pronunciation_guide"`
	EmergencyKeywords       []string        `json:"emergency_keywords"`

	RetellAgentID *string `json:"retell_agent_id"`
	RetellLLMID   *string `json:"retell_llm_id"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Spec converts the configuration into what the platform needs to create the agent.
func (a Agent) Spec() retell.AgentSpec {
	enable := a.EnableBackchannel
	sensitivity := a.InterruptionSensitivity
	s := retell.AgentSpec{
		Name:                    a.Name,
		ScenarioType:            a.ScenarioType,
		SystemPrompt:            a.SystemPrompt,
		InitialGreeting:         a.InitialGreeting,
		VoiceID:                 a.VoiceID,
		Language:                a.Language,
		EnableBackchannel:       &enable,
		BackchannelWords:        a.BackchannelWords,
		InterruptionSensitivity: &sensitivity,
		Responsiveness:          a.Responsiveness,
		AmbientSoundVolume:      a.AmbientSoundVolume,
		PronunciationGuide:      a.PronunciationGuide,
	}
	if a.AmbientSound != nil {
		s.AmbientSound = *a.AmbientSound
	}
	return s
}

// CreateInput is the body of POST /agents. Nil optionals take the defaults below.
type CreateInput struct {
	Name            string              `json:"name"`
	Description     *string             `json:"description"`
	ScenarioType    retell.ScenarioType `json:"scenario_type"`
	SystemPrompt    string              `json:"system_prompt"`
	InitialGreeting string              `json:"initial_greeting"`

	VoiceID                 *string         `json:"voice_id"`
	Language                *string         `json:"language"`
	EnableBackchannel       *bool           `json:"enable_backchannel"`
	BackchannelWords        []string        `json:"backchannel_words"`
	InterruptionSensitivity *float64        `json:"interruption_sensitivity"`
	ResponseDelayMS         *int            `json:"response_delay_ms"`
	Responsiveness          *float64        `json:"responsiveness"`
	AmbientSound            *string         `json:"ambient_sound"`
	AmbientSoundVolume      *float64        `json:"ambient_sound_volume"`
	MaxCallDurationSeconds  *int            `json:"max_call_duration_seconds"`
	PronunciationGuide      json.RawMessage `json:"pronunciation_guide"`
	EmergencyKeywords       []string        `json:"emergency_keywords"`
}

// UpdateInput is the body of PATCH /agents/:id. Only non-nil fields are applied.
type UpdateInput struct {
	Name            *string              `json:"name"`
	Description     *string              `json:"description"`
	ScenarioType    *retell.ScenarioType `json:"scenario_type"`
	SystemPrompt    *string              `json:"system_prompt"`
	InitialGreeting *string              `json:"initial_greeting"`

	VoiceID                 *string         `json:"voice_id"`
	Language                *string         `json:"language"`
	EnableBackchannel       *bool           `json:"enable_backchannel"`
	BackchannelWords        *[]string       `json:"backchannel_words"`
	InterruptionSensitivity *float64        `json:"interruption_sensitivity"`
	ResponseDelayMS         *int            `json:"response_delay_ms"`
	Responsiveness          *float64        `json:"responsiveness"`
	AmbientSound            *string         `json:"ambient_sound"`
	AmbientSoundVolume      *float64        `json:"ambient_sound_volume"`
	MaxCallDurationSeconds  *int            `json:"max_call_duration_seconds"`
	PronunciationGuide      json.RawMessage `json:"pronunciation_guide"`
	EmergencyKeywords       *[]string       `json:"emergency_keywords"`
	IsActive                *bool           `json:"is_active"`
}

const (
	DefaultLanguage                = "en-US"
	DefaultInterruptionSensitivity = 0.7
	DefaultResponseDelayMS         = 800
	DefaultMaxCallDurationSeconds  = 600
)

func DefaultBackchannelWords() []string {
	return []string{"mm-hmm", "I see", "got it"}
}

var ambientSounds = map[string]bool{
	"call-center":      true,
	"coffee-shop":      true,
	"convention-hall":  true,
	"summer-outdoor":   true,
	"mountain-outdoor": true,
	"static-noise":     true,
	"off":              true,
}

var (
	ErrNotFound        = errors.New("agents: not found")
	ErrInvalidArgument = errors.New("agents: invalid argument")
)
