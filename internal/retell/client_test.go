package retell

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-dispatch/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc, fromNumber string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.RetellConfig{APIKey: "key_test", BaseURL: srv.URL, Timeout: 5 * time.Second, FromNumber: fromNumber})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(config.RetellConfig{BaseURL: "http://x", Timeout: time.Second}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestCreateAgent_CreatesLLMThenAgent(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer key_test" {
			t.Errorf("missing bearer auth")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/create-retell-llm":
			if body["general_prompt"] != "be helpful" {
				t.Errorf("unexpected llm body %v", body)
			}
			_, _ = w.Write([]byte(`{"llm_id":"llm_1"}`))
		case "/create-agent":
			engine, _ := body["response_engine"].(map[string]any)
			if engine["llm_id"] != "llm_1" {
				t.Errorf("agent not bound to llm: %v", body)
			}
			_, _ = w.Write([]byte(`{"agent_id":"agent_1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, "")

	ids, err := c.CreateAgent(context.Background(), AgentSpec{Name: "a", SystemPrompt: "be helpful", InitialGreeting: "hi"})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if ids.AgentID != "agent_1" || ids.LLMID != "llm_1" {
		t.Fatalf("unexpected ids %+v", ids)
	}
	if len(paths) != 2 || paths[0] != "/create-retell-llm" || paths[1] != "/create-agent" {
		t.Fatalf("unexpected call order %v", paths)
	}
}

func TestCreatePhoneCall_SendsMetadataAsDynamicVariables(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["to_number"] != "+15550001111" || body["from_number"] != "+15559990000" {
			t.Errorf("unexpected numbers %v", body)
		}
		vars, _ := body["retell_llm_dynamic_variables"].(map[string]any)
		if vars["driver_name"] != "Mike" {
			t.Errorf("missing dynamic variables %v", body)
		}
		_, _ = w.Write([]byte(`{"call_id":"call_1","call_status":"registered"}`))
	}, "+15559990000")

	pc, err := c.CreatePhoneCall(context.Background(), "agent_1", "+15550001111", map[string]string{"driver_name": "Mike", "load_number": "L-1"})
	if err != nil {
		t.Fatalf("phone call: %v", err)
	}
	if pc.CallID != "call_1" {
		t.Fatalf("unexpected call %+v", pc)
	}
}

func TestCreateWebCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/create-web-call" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"call_id":"call_2","access_token":"tok"}`))
	}, "")

	wc, err := c.CreateWebCall(context.Background(), "agent_1", map[string]string{"driver_name": "Mike"})
	if err != nil {
		t.Fatalf("web call: %v", err)
	}
	if wc.CallID != "call_2" || wc.AccessToken != "tok" {
		t.Fatalf("unexpected web call %+v", wc)
	}
}

func TestGetCall_NotFoundIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, "")

	d, err := c.GetCall(context.Background(), "call_missing")
	if err != nil || d != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", d, err)
	}
}

func TestGetCall_ServerErrorPropagates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}, "")

	_, err := c.GetCall(context.Background(), "call_1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if IsNotFound(err) {
		t.Fatalf("502 is not a not-found")
	}
}

func TestGetCall_ConvertsDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/get-call/call_1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"call_id":"call_1","call_status":"ended","start_timestamp":1700000000000,"call_duration":61000,"transcript_object":[{"role":"agent","content":"hi"}]}`))
	}, "")

	d, err := c.GetCall(context.Background(), "call_1")
	if err != nil {
		t.Fatalf("get call: %v", err)
	}
	if d.Status != "ended" || d.StartedAt != "2023-11-14T22:13:20" || *d.DurationSeconds != 61 {
		t.Fatalf("unexpected details %+v", d)
	}
	if d.Transcript != "[Agent]: hi" {
		t.Fatalf("unexpected transcript %q", d.Transcript)
	}
}
