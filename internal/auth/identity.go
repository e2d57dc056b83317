package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	gotrue "github.com/supabase-community/auth-go"
	"github.com/supabase-community/auth-go/types"

	"voice-dispatch/internal/config"
)

var (
	// ErrIdentityUnavailable means no auth provider is configured.
	ErrIdentityUnavailable = errors.New("auth: identity provider not configured")
	ErrInvalidCredentials  = errors.New("auth: invalid credentials")
)

// RejectedError carries the provider's message when it refuses a signup.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("auth: provider rejected request (%d): %s", e.StatusCode, e.Message)
}

// IdentityClient passes register and login through to a GoTrue compatible
// auth provider. A nil *IdentityClient answers ErrIdentityUnavailable.
type IdentityClient struct {
	api gotrue.Client
}

func NewIdentityClient(cfg config.SupabaseConfig, timeout time.Duration) *IdentityClient {
	if cfg.URL == "" {
		return nil
	}
	// The project reference only seeds the default URL, which is replaced below.
	api := gotrue.New("", cfg.AnonKey).
		WithCustomAuthURL(strings.TrimRight(cfg.URL, "/") + "/auth/v1").
		WithClient(http.Client{Timeout: timeout})
	return &IdentityClient{api: api}
}

type Registration struct {
	Message              string `json:"message"`
	Email                string `json:"email"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	AccessToken          string `json:"access_token,omitempty"`
}

type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register creates the account. When the provider requires email confirmation
// no session is returned and RequiresConfirmation is set.
func (c *IdentityClient) Register(ctx context.Context, email, password, fullName string) (Registration, error) {
	if c == nil {
		return Registration{}, ErrIdentityUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Registration{}, err
	}
	req := types.SignupRequest{Email: email, Password: password}
	if fullName != "" {
		req.Data = map[string]interface{}{"full_name": fullName}
	}

	resp, err := c.api.Signup(req)
	if err != nil {
		return Registration{}, providerError(err)
	}

	if resp == nil || resp.AccessToken == "" {
		return Registration{
			Message:              "Registration successful. Check your email to confirm your account.",
			Email:                email,
			RequiresConfirmation: true,
		}, nil
	}
	return Registration{
		Message:     "Registration successful.",
		Email:       email,
		AccessToken: resp.AccessToken,
	}, nil
}

// Login exchanges email and password for an access token.
func (c *IdentityClient) Login(ctx context.Context, email, password string) (Session, error) {
	if c == nil {
		return Session{}, ErrIdentityUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	resp, err := c.api.Token(types.TokenRequest{
		GrantType: "password",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		err = providerError(err)
		var rejected *RejectedError
		if errors.As(err, &rejected) && rejected.StatusCode < http.StatusInternalServerError {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if resp == nil || resp.AccessToken == "" {
		return Session{}, ErrInvalidCredentials
	}
	return Session{AccessToken: resp.AccessToken, TokenType: "bearer"}, nil
}

var statusPattern = regexp.MustCompile(`status code (\d{3})`)

// providerError turns the client's "response status code N: body" errors into
// a RejectedError. Anything else is a transport failure.
func providerError(err error) error {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("auth provider: %w", err)
	}
	code, _ := strconv.Atoi(m[1])
	msg := err.Error()
	if i := strings.Index(msg, "{"); i >= 0 {
		msg = msg[i:]
	}
	return &RejectedError{StatusCode: code, Message: providerMessage([]byte(msg))}
}

// providerMessage picks the human readable field out of a GoTrue error body.
func providerMessage(raw []byte) string {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, s := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
