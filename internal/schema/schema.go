// Package schema owns the Postgres tables the repositories read and write.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"voice-dispatch/pkg/utils"
)

// schemaSQL is idempotent; applying it to an up to date database is a no-op.
// Statements are separated by ";" and must not contain one themselves.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS agent_configurations (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	scenario_type TEXT NOT NULL DEFAULT 'driver_checkin' CHECK (scenario_type IN ('driver_checkin', 'emergency_protocol')),
	system_prompt TEXT NOT NULL,
	initial_greeting TEXT NOT NULL,
	voice_id TEXT NOT NULL DEFAULT '11labs-Adrian',
	language TEXT NOT NULL DEFAULT 'en-US',
	enable_backchannel BOOLEAN NOT NULL DEFAULT true,
	backchannel_words JSONB NOT NULL DEFAULT '["mm-hmm", "I see", "got it"]',
	interruption_sensitivity DOUBLE PRECISION NOT NULL DEFAULT 0.7,
	response_delay_ms INTEGER NOT NULL DEFAULT 800,
	responsiveness DOUBLE PRECISION,
	ambient_sound TEXT,
	ambient_sound_volume DOUBLE PRECISION,
	max_call_duration_seconds INTEGER NOT NULL DEFAULT 600,
	pronunciation_guide JSONB,
	emergency_keywords JSONB NOT NULL DEFAULT '[]',
	retell_agent_id TEXT,
	retell_llm_id TEXT,
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_agent_configurations_user ON agent_configurations (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS calls (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	agent_configuration_id UUID REFERENCES agent_configurations (id) ON DELETE SET NULL,
	call_type TEXT NOT NULL DEFAULT 'phone' CHECK (call_type IN ('phone', 'web')),
	driver_name TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	load_number TEXT NOT NULL,
	retell_call_id TEXT UNIQUE,
	status TEXT NOT NULL DEFAULT 'initiated' CHECK (status IN ('initiated', 'in_progress', 'completed', 'failed')),
	initiated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at TIMESTAMPTZ,
	ended_at TIMESTAMPTZ,
	duration_seconds INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_calls_user ON calls (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS call_transcripts (
	id UUID PRIMARY KEY,
	call_id UUID NOT NULL UNIQUE REFERENCES calls (id) ON DELETE CASCADE,
	transcript TEXT NOT NULL,
	transcript_json JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS call_results (
	id UUID PRIMARY KEY,
	call_id UUID NOT NULL UNIQUE REFERENCES calls (id) ON DELETE CASCADE,
	scenario_type TEXT NOT NULL CHECK (scenario_type IN ('driver_checkin', 'emergency_protocol')),
	is_emergency BOOLEAN NOT NULL DEFAULT false,
	call_summary TEXT NOT NULL DEFAULT '',
	call_outcome TEXT,
	driver_status TEXT,
	current_location TEXT,
	eta TEXT,
	delay_reason TEXT,
	unloading_status TEXT,
	pod_reminder_acknowledged BOOLEAN,
	emergency_type TEXT,
	safety_status TEXT,
	injury_status TEXT,
	location_emergency TEXT,
	load_secure BOOLEAN,
	analysis_data JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Statements returns the schema split into individual statements.
func Statements() []string {
	var out []string
	for _, s := range strings.Split(schemaSQL, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Apply runs every statement in one transaction.
func Apply(ctx context.Context, db *sql.DB) error {
	return utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for i, stmt := range Statements() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
