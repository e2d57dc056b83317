package agents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voice-dispatch/pkg/utils"
)

type Repository interface {
	Create(ctx context.Context, a Agent) (Agent, error)
	Get(ctx context.Context, id, userID string) (Agent, error)
	ListActive(ctx context.Context, userID string) ([]Agent, error)
	Update(ctx context.Context, a Agent) (Agent, error)
	Deactivate(ctx context.Context, id, userID string, at time.Time) error
	SetRemoteIDs(ctx context.Context, id, agentID, llmID string) error
}

type PostgresRepo struct {
	db utils.Querier
}

func NewPostgresRepo(db utils.Querier) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const agentColumns = `id, user_id, name, description, scenario_type, system_prompt, initial_greeting,
voice_id, language, enable_backchannel, backchannel_words, interruption_sensitivity, response_delay_ms,
responsiveness, ambient_sound, ambient_sound_volume, max_call_duration_seconds, pronunciation_guide,
emergency_keywords, retell_agent_id, retell_llm_id, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (Agent, error) {
	var (
		a                  Agent
		words, keywords    []byte
		pronunciationGuide []byte
	)
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Name,
		&a.Description,
		&a.ScenarioType,
		&a.SystemPrompt,
		&a.InitialGreeting,
		&a.VoiceID,
		&a.Language,
		&a.EnableBackchannel,
		&words,
		&a.InterruptionSensitivity,
		&a.ResponseDelayMS,
		&a.Responsiveness,
		&a.AmbientSound,
		&a.AmbientSoundVolume,
		&a.MaxCallDurationSeconds,
		&pronunciationGuide,
		&keywords,
		&a.RetellAgentID,
		&a.RetellLLMID,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, err
	}
	if a.BackchannelWords, err = stringList(words); err != nil {
		return Agent{}, fmt.Errorf("backchannel_words: %w", err)
	}
	if a.EmergencyKeywords, err = stringList(keywords); err != nil {
		return Agent{}, fmt.Errorf("emergency_keywords: %w", err)
	}
	if len(pronunciationGuide) > 0 {
		a.PronunciationGuide = json.RawMessage(pronunciationGuide)
	}
	return a, nil
}

func (r *PostgresRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	const q = `
INSERT INTO agent_configurations (id, user_id, name, description, scenario_type, system_prompt, initial_greeting,
  voice_id, language, enable_backchannel, backchannel_words, interruption_sensitivity, response_delay_ms,
  responsiveness, ambient_sound, ambient_sound_volume, max_call_duration_seconds, pronunciation_guide,
  emergency_keywords, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14, $15, $16, $17, $18::jsonb,
  $19::jsonb, $20, $21, $21)
RETURNING ` + agentColumns
	words, keywords, err := listArgs(a)
	if err != nil {
		return Agent{}, err
	}
	return scanAgent(r.db.QueryRowContext(ctx, q,
		a.ID,
		a.UserID,
		a.Name,
		a.Description,
		a.ScenarioType,
		a.SystemPrompt,
		a.InitialGreeting,
		a.VoiceID,
		a.Language,
		a.EnableBackchannel,
		words,
		a.InterruptionSensitivity,
		a.ResponseDelayMS,
		a.Responsiveness,
		a.AmbientSound,
		a.AmbientSoundVolume,
		a.MaxCallDurationSeconds,
		jsonArg(a.PronunciationGuide),
		keywords,
		a.IsActive,
		a.CreatedAt,
	))
}

func (r *PostgresRepo) Get(ctx context.Context, id, userID string) (Agent, error) {
	const q = `SELECT ` + agentColumns + ` FROM agent_configurations WHERE id = $1 AND user_id = $2`
	return scanAgent(r.db.QueryRowContext(ctx, q, id, userID))
}

func (r *PostgresRepo) ListActive(ctx context.Context, userID string) ([]Agent, error) {
	const q = `
SELECT ` + agentColumns + `
FROM agent_configurations
WHERE user_id = $1 AND is_active
ORDER BY created_at DESC
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Agent{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update overwrites every editable column. Remote ids are owned by SetRemoteIDs.
func (r *PostgresRepo) Update(ctx context.Context, a Agent) (Agent, error) {
	const q = `
UPDATE agent_configurations SET
  name = $3,
  description = $4,
  scenario_type = $5,
  system_prompt = $6,
  initial_greeting = $7,
  voice_id = $8,
  language = $9,
  enable_backchannel = $10,
  backchannel_words = $11::jsonb,
  interruption_sensitivity = $12,
  response_delay_ms = $13,
  responsiveness = $14,
  ambient_sound = $15,
  ambient_sound_volume = $16,
  max_call_duration_seconds = $17,
  pronunciation_guide = $18::jsonb,
  emergency_keywords = $19::jsonb,
  is_active = $20,
  updated_at = $21
WHERE id = $1 AND user_id = $2
RETURNING ` + agentColumns
	words, keywords, err := listArgs(a)
	if err != nil {
		return Agent{}, err
	}
	return scanAgent(r.db.QueryRowContext(ctx, q,
		a.ID,
		a.UserID,
		a.Name,
		a.Description,
		a.ScenarioType,
		a.SystemPrompt,
		a.InitialGreeting,
		a.VoiceID,
		a.Language,
		a.EnableBackchannel,
		words,
		a.InterruptionSensitivity,
		a.ResponseDelayMS,
		a.Responsiveness,
		a.AmbientSound,
		a.AmbientSoundVolume,
		a.MaxCallDurationSeconds,
		jsonArg(a.PronunciationGuide),
		keywords,
		a.IsActive,
		a.UpdatedAt,
	))
}

func (r *PostgresRepo) Deactivate(ctx context.Context, id, userID string, at time.Time) error {
	const q = `UPDATE agent_configurations SET is_active = false, updated_at = $3 WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) SetRemoteIDs(ctx context.Context, id, agentID, llmID string) error {
	const q = `
UPDATE agent_configurations
SET retell_agent_id = $2, retell_llm_id = $3, updated_at = now()
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, agentID, llmID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func listArgs(a Agent) (words, keywords string, err error) {
	w, err := json.Marshal(nonNilList(a.BackchannelWords))
	if err != nil {
		return "", "", err
	}
	k, err := json.Marshal(nonNilList(a.EmergencyKeywords))
	if err != nil {
		return "", "", err
	}
	return string(w), string(k), nil
}

func nonNilList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func stringList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
