package agents

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"voice-dispatch/internal/retell"
	"voice-dispatch/pkg/logger"

	"github.com/google/uuid"
)

// RemoteAgents creates agents on the voice platform.
type RemoteAgents interface {
	CreateAgent(ctx context.Context, spec retell.AgentSpec) (retell.AgentIDs, error)
}

type Service struct {
	repo   Repository
	remote RemoteAgents
	clock  func() time.Time
}

func NewService(repo Repository, remote RemoteAgents) *Service {
	return &Service{repo: repo, remote: remote, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Agent, error) {
	if userID == "" {
		return Agent{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	a := Agent{
		ID:                      uuid.NewString(),
		UserID:                  userID,
		Name:                    strings.TrimSpace(in.Name),
		Description:             in.Description,
		ScenarioType:            in.ScenarioType,
		SystemPrompt:            in.SystemPrompt,
		InitialGreeting:         in.InitialGreeting,
		VoiceID:                 retell.DefaultVoiceID,
		Language:                DefaultLanguage,
		EnableBackchannel:       true,
		BackchannelWords:        DefaultBackchannelWords(),
		InterruptionSensitivity: DefaultInterruptionSensitivity,
		ResponseDelayMS:         DefaultResponseDelayMS,
		Responsiveness:          in.Responsiveness,
		AmbientSound:            in.AmbientSound,
		AmbientSoundVolume:      in.AmbientSoundVolume,
		MaxCallDurationSeconds:  DefaultMaxCallDurationSeconds,
		PronunciationGuide:      nullAsEmpty(in.PronunciationGuide),
		EmergencyKeywords:       in.EmergencyKeywords,
		IsActive:                true,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if a.ScenarioType == "" {
		a.ScenarioType = retell.ScenarioDriverCheckin
	}
	if in.VoiceID != nil {
		a.VoiceID = *in.VoiceID
	}
	if in.Language != nil {
		a.Language = *in.Language
	}
	if in.EnableBackchannel != nil {
		a.EnableBackchannel = *in.EnableBackchannel
	}
	if in.BackchannelWords != nil {
		a.BackchannelWords = in.BackchannelWords
	}
	if in.InterruptionSensitivity != nil {
		a.InterruptionSensitivity = *in.InterruptionSensitivity
	}
	if in.ResponseDelayMS != nil {
		a.ResponseDelayMS = *in.ResponseDelayMS
	}
	if in.MaxCallDurationSeconds != nil {
		a.MaxCallDurationSeconds = *in.MaxCallDurationSeconds
	}
	if a.EmergencyKeywords == nil {
		a.EmergencyKeywords = []string{}
	}

	if err := validate(a); err != nil {
		return Agent{}, err
	}
	return s.repo.Create(ctx, a)
}

// List returns the user's active agents, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Agent, error) {
	return s.repo.ListActive(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (Agent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Agent{}, ErrNotFound
	}
	return s.repo.Get(ctx, id, userID)
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (Agent, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return Agent{}, err
	}
	applyUpdate(&a, in)
	a.UpdatedAt = s.clock().UTC()
	if err := validate(a); err != nil {
		return Agent{}, err
	}
	return s.repo.Update(ctx, a)
}

// Delete deactivates the agent. Calls keep their reference to it.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.repo.Deactivate(ctx, id, userID, s.clock().UTC())
}

// EnsureRemoteAgent returns the platform agent id for the user's agent,
// creating the LLM config and agent on the platform the first time.
func (s *Service) EnsureRemoteAgent(ctx context.Context, userID, id string) (string, error) {
	a, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if a.RetellAgentID != nil && *a.RetellAgentID != "" {
		return *a.RetellAgentID, nil
	}

	log := logger.From(ctx).With("agent_configuration_id", a.ID)
	log.Info("provisioning agent on voice platform", "name", a.Name)

	ids, err := s.remote.CreateAgent(ctx, a.Spec())
	if err != nil {
		return "", fmt.Errorf("provision agent %s: %w", a.ID, err)
	}
	if err := s.repo.SetRemoteIDs(ctx, a.ID, ids.AgentID, ids.LLMID); err != nil {
		// The remote agent exists; the next call will provision another one.
		log.Error("storing remote agent ids failed", "retell_agent_id", ids.AgentID, "err", err)
		return "", fmt.Errorf("store remote agent ids: %w", err)
	}
	log.Info("agent provisioned", "retell_agent_id", ids.AgentID, "retell_llm_id", ids.LLMID)
	return ids.AgentID, nil
}

func applyUpdate(a *Agent, in UpdateInput) {
	if in.Name != nil {
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		a.Description = in.Description
	}
	if in.ScenarioType != nil {
		a.ScenarioType = *in.ScenarioType
	}
	if in.SystemPrompt != nil {
		a.SystemPrompt = *in.SystemPrompt
	}
	if in.InitialGreeting != nil {
		a.InitialGreeting = *in.InitialGreeting
	}
	if in.VoiceID != nil {
		a.VoiceID = *in.VoiceID
	}
	if in.Language != nil {
		a.Language = *in.Language
	}
	if in.EnableBackchannel != nil {
		a.EnableBackchannel = *in.EnableBackchannel
	}
	if in.BackchannelWords != nil {
		a.BackchannelWords = *in.BackchannelWords
	}
	if in.InterruptionSensitivity != nil {
		a.InterruptionSensitivity = *in.InterruptionSensitivity
	}
	if in.ResponseDelayMS != nil {
		a.ResponseDelayMS = *in.ResponseDelayMS
	}
	if in.Responsiveness != nil {
		a.Responsiveness = in.Responsiveness
	}
	if in.AmbientSound != nil {
		a.AmbientSound = in.AmbientSound
	}
	if in.AmbientSoundVolume != nil {
		a.AmbientSoundVolume = in.AmbientSoundVolume
	}
	if in.MaxCallDurationSeconds != nil {
		a.MaxCallDurationSeconds = *in.MaxCallDurationSeconds
	}
	if len(in.PronunciationGuide) > 0 {
		a.PronunciationGuide = nullAsEmpty(in.PronunciationGuide)
	}
	if in.EmergencyKeywords != nil {
		a.EmergencyKeywords = *in.EmergencyKeywords
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
}

func validate(a Agent) error {
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	case strings.TrimSpace(a.SystemPrompt) == "":
		return fmt.Errorf("%w: system_prompt is required", ErrInvalidArgument)
	case strings.TrimSpace(a.InitialGreeting) == "":
		return fmt.Errorf("%w: initial_greeting is required", ErrInvalidArgument)
	case !a.ScenarioType.Valid():
		return fmt.Errorf("%w: scenario_type must be driver_checkin or emergency_protocol", ErrInvalidArgument)
	case a.VoiceID == "":
		return fmt.Errorf("%w: voice_id must not be empty", ErrInvalidArgument)
	case a.InterruptionSensitivity < 0 || a.InterruptionSensitivity > 1:
		return fmt.Errorf("%w: interruption_sensitivity must be between 0 and 1", ErrInvalidArgument)
	case a.Responsiveness != nil && (*a.Responsiveness < 0 || *a.Responsiveness > 1):
		return fmt.Errorf("%w: responsiveness must be between 0 and 1", ErrInvalidArgument)
	case a.AmbientSound != nil && !ambientSounds[*a.AmbientSound]:
		return fmt.Errorf("%w: unknown ambient_sound %q", ErrInvalidArgument, *a.AmbientSound)
	case a.AmbientSoundVolume != nil && (*a.AmbientSoundVolume < 0 || *a.AmbientSoundVolume > 2):
		return fmt.Errorf("%w: ambient_sound_volume must be between 0 and 2", ErrInvalidArgument)
	case a.ResponseDelayMS < 0:
		return fmt.Errorf("%w: response_delay_ms must not be negative", ErrInvalidArgument)
	case a.MaxCallDurationSeconds <= 0:
		return fmt.Errorf("%w: max_call_duration_seconds must be positive", ErrInvalidArgument)
	}
	return nil
}

func nullAsEmpty(raw []byte) []byte {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}
