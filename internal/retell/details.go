package retell

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// CallDetails is a finished or in-flight call as reported by the platform,
// already converted to local conventions.
type CallDetails struct {
	CallID string
	Status string

	// StartedAt and EndedAt are ISO-8601 text in UTC, empty when unknown.
	StartedAt       string
	EndedAt         string
	DurationSeconds *int

	Transcript       string
	TranscriptObject json.RawMessage
	CallAnalysis     json.RawMessage
	Metadata         json.RawMessage

	RecordingURL string
	PublicLogURL string
}

// HasAnalysis reports whether the platform returned a non-empty analysis.
func (d *CallDetails) HasAnalysis() bool {
	return d != nil && nonEmpty(d.CallAnalysis) != nil
}

type getCallResponse struct {
	CallID           string          `json:"call_id"`
	CallStatus       string          `json:"call_status"`
	StartTimestamp   any             `json:"start_timestamp"`
	EndTimestamp     any             `json:"end_timestamp"`
	CallDuration     *float64        `json:"call_duration"`
	DurationMS       *float64        `json:"duration_ms"`
	Transcript       json.RawMessage `json:"transcript"`
	TranscriptObject json.RawMessage `json:"transcript_object"`
	CallAnalysis     json.RawMessage `json:"call_analysis"`
	Metadata         json.RawMessage `json:"metadata"`
	RecordingURL     string          `json:"recording_url"`
	PublicLogURL     string          `json:"public_log_url"`
}

func (r getCallResponse) toDetails() CallDetails {
	d := CallDetails{
		CallID:       r.CallID,
		Status:       r.CallStatus,
		StartedAt:    ConvertTimestamp(r.StartTimestamp),
		EndedAt:      ConvertTimestamp(r.EndTimestamp),
		CallAnalysis: nonEmpty(r.CallAnalysis),
		Metadata:     nonNull(r.Metadata),
		RecordingURL: r.RecordingURL,
		PublicLogURL: r.PublicLogURL,
	}

	ms := r.CallDuration
	if ms == nil {
		ms = r.DurationMS
	}
	if ms != nil && *ms > 0 {
		secs := int(*ms / 1000)
		d.DurationSeconds = &secs
	}

	d.TranscriptObject = nonNull(r.TranscriptObject)
	if d.TranscriptObject == nil {
		d.TranscriptObject = nonNull(r.Transcript)
	}
	d.Transcript = FormatTranscript(r.Transcript)
	if d.Transcript == "" {
		d.Transcript = FormatTranscript(r.TranscriptObject)
	}
	return d
}

const (
	isoLayout       = "2006-01-02T15:04:05"
	isoLayoutMicros = "2006-01-02T15:04:05.000000"
)

var isoInputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ConvertTimestamp turns an epoch-milliseconds value into UTC ISO-8601 text.
// ISO strings pass through unchanged, numeric strings are read as milliseconds,
// and anything else yields "".
func ConvertTimestamp(v any) string {
	var ms int64
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		if isISO(s) {
			return t
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return ""
		}
		ms = n
	case float64:
		ms = int64(t)
	case float32:
		ms = int64(t)
	case int:
		ms = int64(t)
	case int64:
		ms = t
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return ""
			}
			n = int64(f)
		}
		ms = n
	default:
		return ""
	}
	if ms == 0 {
		return ""
	}

	ts := time.UnixMilli(ms).UTC()
	if ts.Nanosecond() == 0 {
		return ts.Format(isoLayout)
	}
	return ts.Format(isoLayoutMicros)
}

func isISO(s string) bool {
	for _, layout := range isoInputLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// ParseISO reads text produced by ConvertTimestamp (or passed through by it).
// Values without an offset are taken as UTC.
func ParseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoInputLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

type transcriptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FormatTranscript renders a transcript as "[Agent]: ..." / "[User]: ..." lines.
// A plain string transcript is returned as is.
func FormatTranscript(raw json.RawMessage) string {
	raw = nonNull(raw)
	if raw == nil {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var turns []transcriptTurn
	if err := json.Unmarshal(raw, &turns); err == nil {
		lines := make([]string, 0, len(turns))
		for _, t := range turns {
			label := "User"
			if t.Role == "agent" {
				label = "Agent"
			}
			lines = append(lines, "["+label+"]: "+t.Content)
		}
		return strings.Join(lines, "\n")
	}

	return string(raw)
}

func nonNull(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return raw
}

// nonEmpty is nonNull that also drops empty objects, arrays and strings.
func nonEmpty(raw json.RawMessage) json.RawMessage {
	raw = nonNull(raw)
	if raw == nil {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
	case []any:
		if len(t) == 0 {
			return nil
		}
	case string:
		if t == "" {
			return nil
		}
	}
	return raw
}
