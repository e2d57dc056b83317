package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"voice-dispatch/pkg/utils"
)

// Repository is the persistence contract for calls and their dependent records.
// An empty userID on lookups skips the owner filter; only the webhook path does that.
type Repository interface {
	Create(ctx context.Context, c Call) (Call, error)
	GetByID(ctx context.Context, id, userID string) (Call, error)
	GetByRemoteID(ctx context.Context, remoteID, userID string) (Call, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Call, error)
	UpdateStatus(ctx context.Context, id string, status CallStatus, times *CallTimes) (Call, error)
	Delete(ctx context.Context, id, userID string) error

	// InsertTranscriptIfAbsent reports whether a row was written.
	InsertTranscriptIfAbsent(ctx context.Context, t Transcript) (bool, error)
	UpsertResults(ctx context.Context, r Results) (Results, error)
	GetTranscript(ctx context.Context, callID string) (*Transcript, error)
	GetResults(ctx context.Context, callID string) (*Results, error)
}

// PostgresRepo assumes the tables created by internal/schema.
type PostgresRepo struct {
	db utils.Querier
}

func NewPostgresRepo(db utils.Querier) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const callColumns = `id, user_id, agent_configuration_id, call_type, driver_name, phone_number, load_number,
retell_call_id, status, initiated_at, started_at, ended_at, duration_seconds, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var c Call
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.AgentConfigurationID,
		&c.CallType,
		&c.DriverName,
		&c.PhoneNumber,
		&c.LoadNumber,
		&c.RetellCallID,
		&c.Status,
		&c.InitiatedAt,
		&c.StartedAt,
		&c.EndedAt,
		&c.DurationSeconds,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) Create(ctx context.Context, c Call) (Call, error) {
	const q = `
INSERT INTO calls (id, user_id, agent_configuration_id, call_type, driver_name, phone_number, load_number,
  retell_call_id, status, initiated_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
RETURNING ` + callColumns
	return scanCall(r.db.QueryRowContext(ctx, q,
		c.ID,
		c.UserID,
		c.AgentConfigurationID,
		c.CallType,
		c.DriverName,
		c.PhoneNumber,
		c.LoadNumber,
		c.RetellCallID,
		c.Status,
		c.InitiatedAt,
		c.CreatedAt,
	))
}

func (r *PostgresRepo) GetByID(ctx context.Context, id, userID string) (Call, error) {
	q := `SELECT ` + callColumns + ` FROM calls WHERE id = $1`
	args := []any{id}
	if userID != "" {
		q += ` AND user_id = $2`
		args = append(args, userID)
	}
	return scanCall(r.db.QueryRowContext(ctx, q, args...))
}

func (r *PostgresRepo) GetByRemoteID(ctx context.Context, remoteID, userID string) (Call, error) {
	q := `SELECT ` + callColumns + ` FROM calls WHERE retell_call_id = $1`
	args := []any{remoteID}
	if userID != "" {
		q += ` AND user_id = $2`
		args = append(args, userID)
	}
	return scanCall(r.db.QueryRowContext(ctx, q, args...))
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateStatus is a single last-writer-wins statement. Nil time fields keep the stored value.
func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, status CallStatus, times *CallTimes) (Call, error) {
	if times == nil {
		const q = `
UPDATE calls SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + callColumns
		return scanCall(r.db.QueryRowContext(ctx, q, id, status))
	}

	const q = `
UPDATE calls SET
  status = $2,
  started_at = COALESCE($3, started_at),
  ended_at = COALESCE($4, ended_at),
  duration_seconds = COALESCE($5, duration_seconds),
  updated_at = now()
WHERE id = $1
RETURNING ` + callColumns
	return scanCall(r.db.QueryRowContext(ctx, q, id, status, times.StartedAt, times.EndedAt, times.DurationSeconds))
}

func (r *PostgresRepo) Delete(ctx context.Context, id, userID string) error {
	const q = `DELETE FROM calls WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
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

const insertTranscriptSQL = `
INSERT INTO call_transcripts (id, call_id, transcript, transcript_json, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (call_id) DO NOTHING
`

// InsertTranscriptIfAbsent relies on UNIQUE (call_id); a second delivery is a no-op.
func (r *PostgresRepo) InsertTranscriptIfAbsent(ctx context.Context, t Transcript) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertTranscriptSQL, t.ID, t.CallID, t.Transcript, jsonArg(t.TranscriptJSON), t.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

const resultColumns = `id, call_id, scenario_type, is_emergency, call_summary, call_outcome,
driver_status, current_location, eta, delay_reason, unloading_status, pod_reminder_acknowledged,
emergency_type, safety_status, injury_status, location_emergency, load_secure,
analysis_data, created_at, updated_at`

func scanResults(row rowScanner) (Results, error) {
	var res Results
	var analysis []byte
	err := row.Scan(
		&res.ID,
		&res.CallID,
		&res.ScenarioType,
		&res.IsEmergency,
		&res.CallSummary,
		&res.CallOutcome,
		&res.DriverStatus,
		&res.CurrentLocation,
		&res.ETA,
		&res.DelayReason,
		&res.UnloadingStatus,
		&res.PODReminderAcknowledged,
		&res.EmergencyType,
		&res.SafetyStatus,
		&res.InjuryStatus,
		&res.LocationEmergency,
		&res.LoadSecure,
		&analysis,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return Results{}, err
	}
	if len(analysis) > 0 {
		res.AnalysisData = json.RawMessage(analysis)
	}
	return res, nil
}

const upsertResultsSQL = `
INSERT INTO call_results (id, call_id, scenario_type, is_emergency, call_summary, call_outcome,
  driver_status, current_location, eta, delay_reason, unloading_status, pod_reminder_acknowledged,
  emergency_type, safety_status, injury_status, location_emergency, load_secure,
  analysis_data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
ON CONFLICT (call_id) DO UPDATE SET
  scenario_type = EXCLUDED.scenario_type,
  is_emergency = EXCLUDED.is_emergency,
  call_summary = EXCLUDED.call_summary,
  call_outcome = EXCLUDED.call_outcome,
  driver_status = EXCLUDED.driver_status,
  current_location = EXCLUDED.current_location,
  eta = EXCLUDED.eta,
  delay_reason = EXCLUDED.delay_reason,
  unloading_status = EXCLUDED.unloading_status,
  pod_reminder_acknowledged = EXCLUDED.pod_reminder_acknowledged,
  emergency_type = EXCLUDED.emergency_type,
  safety_status = EXCLUDED.safety_status,
  injury_status = EXCLUDED.injury_status,
  location_emergency = EXCLUDED.location_emergency,
  load_secure = EXCLUDED.load_secure,
  analysis_data = EXCLUDED.analysis_data,
  updated_at = EXCLUDED.updated_at
RETURNING ` + resultColumns

// UpsertResults overwrites every normalized column so the latest analysis wins.
func (r *PostgresRepo) UpsertResults(ctx context.Context, res Results) (Results, error) {
	return scanResults(r.db.QueryRowContext(ctx, upsertResultsSQL,
		res.ID,
		res.CallID,
		res.ScenarioType,
		res.IsEmergency,
		res.CallSummary,
		res.CallOutcome,
		res.DriverStatus,
		res.CurrentLocation,
		res.ETA,
		res.DelayReason,
		res.UnloadingStatus,
		res.PODReminderAcknowledged,
		res.EmergencyType,
		res.SafetyStatus,
		res.InjuryStatus,
		res.LocationEmergency,
		res.LoadSecure,
		jsonArg(res.AnalysisData),
		res.UpdatedAt,
	))
}

func (r *PostgresRepo) GetTranscript(ctx context.Context, callID string) (*Transcript, error) {
	const q = `
SELECT id, call_id, transcript, transcript_json, created_at
FROM call_transcripts
WHERE call_id = $1
`
	var t Transcript
	var raw []byte
	err := r.db.QueryRowContext(ctx, q, callID).Scan(&t.ID, &t.CallID, &t.Transcript, &raw, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		t.TranscriptJSON = json.RawMessage(raw)
	}
	return &t, nil
}

func (r *PostgresRepo) GetResults(ctx context.Context, callID string) (*Results, error) {
	q := `SELECT ` + resultColumns + ` FROM call_results WHERE call_id = $1`
	res, err := scanResults(r.db.QueryRowContext(ctx, q, callID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// jsonArg passes JSON as text so the jsonb cast happens server side; empty means NULL.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
