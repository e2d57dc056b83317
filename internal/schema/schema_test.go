package schema

import (
	"strings"
	"testing"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(stmts))
	}
	for _, s := range stmts {
		if !strings.Contains(s, "IF NOT EXISTS") {
			t.Fatalf("statement is not idempotent: %s", s)
		}
		if strings.HasSuffix(s, ";") || s != strings.TrimSpace(s) {
			t.Fatalf("statement not trimmed: %q", s)
		}
	}
}

func TestStatements_DependentTablesCascade(t *testing.T) {
	for _, table := range []string{"call_transcripts", "call_results"} {
		var found bool
		for _, s := range Statements() {
			if strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS "+table+" ") {
				found = true
				if !strings.Contains(s, "call_id UUID NOT NULL UNIQUE REFERENCES calls (id) ON DELETE CASCADE") {
					t.Fatalf("%s must be unique per call and cascade: %s", table, s)
				}
			}
		}
		if !found {
			t.Fatalf("table %s missing", table)
		}
	}
}
