package calls

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

type rowsAffected int64

func (n rowsAffected) LastInsertId() (int64, error) { return 0, nil }
func (n rowsAffected) RowsAffected() (int64, error) { return int64(n), nil }

// execRecorder captures ExecContext calls. Query methods are not used by the
// statements under test.
type execRecorder struct {
	query    string
	args     []any
	affected int64
}

func (e *execRecorder) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	e.query = query
	e.args = args
	return rowsAffected(e.affected), nil
}

func (e *execRecorder) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	panic("unexpected QueryContext")
}

func (e *execRecorder) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	panic("unexpected QueryRowContext")
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

func maxPlaceholder(q string) int {
	highest := 0
	for _, m := range placeholder.FindAllStringSubmatch(q, -1) {
		if n, _ := strconv.Atoi(m[1]); n > highest {
			highest = n
		}
	}
	return highest
}

func columnList(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		out = append(out, strings.TrimSpace(c))
	}
	return out
}

func TestPostgresRepo_InsertTranscriptIfAbsent(t *testing.T) {
	rec := &execRecorder{affected: 1}
	repo := NewPostgresRepo(rec)
	tr := Transcript{ID: "t1", CallID: "c1", Transcript: "[Agent]: hi", CreatedAt: time.Now()}

	written, err := repo.InsertTranscriptIfAbsent(context.Background(), tr)
	if err != nil || !written {
		t.Fatalf("expected first insert to be written, got %v, %v", written, err)
	}
	if !strings.Contains(rec.query, "ON CONFLICT (call_id) DO NOTHING") {
		t.Fatalf("transcript insert must ignore duplicates:\n%s", rec.query)
	}
	if got := maxPlaceholder(rec.query); got != len(rec.args) {
		t.Fatalf("statement uses %d placeholders, %d args passed", got, len(rec.args))
	}

	rec.affected = 0
	written, err = repo.InsertTranscriptIfAbsent(context.Background(), tr)
	if err != nil || written {
		t.Fatalf("conflicting insert should report not written, got %v, %v", written, err)
	}
}

func TestUpsertResultsSQL_OverwritesEveryNormalizedColumn(t *testing.T) {
	q := upsertResultsSQL
	if !strings.Contains(q, "ON CONFLICT (call_id) DO UPDATE SET") {
		t.Fatalf("results upsert must target call_id:\n%s", q)
	}

	lp, rp := strings.Index(q, "("), strings.Index(q, ")")
	inserted := columnList(q[lp+1 : rp])
	if strings.Join(inserted, ",") != strings.Join(columnList(resultColumns), ",") {
		t.Fatalf("insert columns %v differ from result columns", inserted)
	}

	setClause := q[strings.Index(q, "DO UPDATE SET")+len("DO UPDATE SET") : strings.Index(q, "RETURNING")]
	assigned := map[string]bool{}
	for _, part := range strings.Split(setClause, ",") {
		kv := strings.SplitN(part, "=", 2)
		col := strings.TrimSpace(kv[0])
		if len(kv) != 2 || strings.TrimSpace(kv[1]) != "EXCLUDED."+col {
			t.Fatalf("unexpected assignment %q", part)
		}
		assigned[col] = true
	}
	for _, col := range columnList(resultColumns) {
		keep := col == "id" || col == "call_id" || col == "created_at"
		if assigned[col] == keep {
			t.Fatalf("column %s: assigned=%v", col, assigned[col])
		}
	}

	// created_at and updated_at share the last argument.
	if got := maxPlaceholder(q); got != len(inserted)-1 {
		t.Fatalf("expected %d placeholders, got %d", len(inserted)-1, got)
	}
}
