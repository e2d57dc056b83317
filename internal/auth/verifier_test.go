package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-dispatch/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

var testNow = time.Unix(1700000000, 0).UTC()

func sign(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func userClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://proj.supabase.co/auth/v1",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(testNow),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		Email:        "dispatch@example.com",
		Role:         "authenticated",
		UserMetadata: UserMetadata{FullName: "Dana Dispatcher"},
	}
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(config.AuthConfig{
		JWTSecret:   testSecret,
		JWTIssuer:   "https://proj.supabase.co/auth/v1",
		JWTAudience: "authenticated",
	})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	return v
}

func TestVerify_AcceptsProviderToken(t *testing.T) {
	v := newTestVerifier(t)
	claims, err := v.Verify(sign(t, userClaims()), testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	id := claims.Identity()
	if id.UserID != "user-1" || id.Email != "dispatch@example.com" || id.FullName != "Dana Dispatcher" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestVerify_Rejections(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Claims)
		at   time.Time
	}{
		{"expired", func(c *Claims) {}, testNow.Add(2 * time.Hour)},
		{"no expiry", func(c *Claims) { c.ExpiresAt = nil }, testNow},
		{"wrong issuer", func(c *Claims) { c.Issuer = "https://other" }, testNow},
		{"wrong audience", func(c *Claims) { c.Audience = jwt.ClaimStrings{"service"} }, testNow},
		{"no subject", func(c *Claims) { c.Subject = "" }, testNow},
		{"anon role", func(c *Claims) { c.Role = "anon" }, testNow},
	}
	v := newTestVerifier(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := userClaims()
			tc.mod(&c)
			if _, err := v.Verify(sign(t, c), tc.at); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestVerify_WithinLeeway(t *testing.T) {
	v := newTestVerifier(t)
	if _, err := v.Verify(sign(t, userClaims()), testNow.Add(time.Hour+10*time.Second)); err != nil {
		t.Fatalf("expected leeway to accept token, got %v", err)
	}
}

func TestVerify_RejectsOtherSecret(t *testing.T) {
	v := newTestVerifier(t)
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims()).SignedString([]byte("other"))
	if _, err := v.Verify(tok, testNow); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestNewVerifier_RequiresSource(t *testing.T) {
	if _, err := NewVerifier(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error without secret or jwks url")
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v, err := NewVerifier(config.AuthConfig{JWTSecret: testSecret, JWTAudience: "authenticated"})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	r := gin.New()
	r.GET("/me", RequireAccessToken(v), func(c *gin.Context) {
		id, err := IdentityFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, id)
	})

	claims := userClaims()
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + sign(t, claims), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
