package retell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"voice-dispatch/internal/config"
)

const maxErrorBody = 4 << 10

// APIError is returned for any non-2xx answer from the voice platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("retell: status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the voice platform.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the Retell REST API. It never retries; callers decide what
// a failure means for them.
type Client struct {
	apiKey     string
	baseURL    string
	fromNumber string
	http       *http.Client
}

func NewClient(cfg config.RetellConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("RETELL_API_KEY is required")
	}
	if cfg.BaseURL == "" || cfg.Timeout <= 0 {
		return nil, errors.New("retell: base url and timeout are required")
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		fromNumber: cfg.FromNumber,
		http:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type AgentIDs struct {
	AgentID string `json:"agent_id"`
	LLMID   string `json:"llm_id"`
}

type PhoneCall struct {
	CallID     string `json:"call_id"`
	CallStatus string `json:"call_status"`
}

type WebCall struct {
	CallID      string `json:"call_id"`
	AccessToken string `json:"access_token"`
}

// CreateLLM registers the prompt and greeting and returns the llm_id.
func (c *Client) CreateLLM(ctx context.Context, systemPrompt, greeting string) (string, error) {
	var out struct {
		LLMID string `json:"llm_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-retell-llm", BuildLLMPayload(systemPrompt, greeting), &out); err != nil {
		return "", fmt.Errorf("create llm: %w", err)
	}
	if out.LLMID == "" {
		return "", errors.New("create llm: empty llm_id in response")
	}
	return out.LLMID, nil
}

// CreateAgent creates the LLM config first and then the agent bound to it.
func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) (AgentIDs, error) {
	llmID, err := c.CreateLLM(ctx, spec.SystemPrompt, spec.InitialGreeting)
	if err != nil {
		return AgentIDs{}, err
	}

	var out struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/create-agent", BuildAgentPayload(spec, llmID), &out); err != nil {
		return AgentIDs{}, fmt.Errorf("create agent: %w", err)
	}
	if out.AgentID == "" {
		return AgentIDs{}, errors.New("create agent: empty agent_id in response")
	}
	return AgentIDs{AgentID: out.AgentID, LLMID: llmID}, nil
}

// CreatePhoneCall dials toNumber. metadata doubles as the LLM dynamic variables.
func (c *Client) CreatePhoneCall(ctx context.Context, agentID, toNumber string, metadata map[string]string) (PhoneCall, error) {
	payload := map[string]any{
		"agent_id":                     agentID,
		"to_number":                    toNumber,
		"metadata":                     metadata,
		"retell_llm_dynamic_variables": metadata,
	}
	if c.fromNumber != "" {
		payload["from_number"] = c.fromNumber
	}

	var out PhoneCall
	if err := c.do(ctx, http.MethodPost, "/create-phone-number-call", payload, &out); err != nil {
		return PhoneCall{}, fmt.Errorf("create phone call: %w", err)
	}
	return out, nil
}

func (c *Client) CreateWebCall(ctx context.Context, agentID string, metadata map[string]string) (WebCall, error) {
	payload := map[string]any{
		"agent_id":                     agentID,
		"metadata":                     metadata,
		"retell_llm_dynamic_variables": metadata,
	}

	var out WebCall
	if err := c.do(ctx, http.MethodPost, "/v2/create-web-call", payload, &out); err != nil {
		return WebCall{}, fmt.Errorf("create web call: %w", err)
	}
	if out.AccessToken == "" || out.CallID == "" {
		return WebCall{}, errors.New("create web call: incomplete response")
	}
	return out, nil
}

// GetCall fetches call details. A call unknown to the platform yields (nil, nil).
func (c *Client) GetCall(ctx context.Context, callID string) (*CallDetails, error) {
	var raw getCallResponse
	err := c.do(ctx, http.MethodGet, "/v2/get-call/"+url.PathEscape(callID), nil, &raw)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get call %s: %w", callID, err)
	}
	d := raw.toDetails()
	return &d, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
