package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	corsHandler := CORS([]string{"http://localhost:5173"})(handler)

	tests := []struct {
		name           string
		origin         string
		method         string
		preflightFor   string
		expectedOrigin string
	}{
		{name: "allowed origin", origin: "http://localhost:5173", method: http.MethodGet, expectedOrigin: "http://localhost:5173"},
		{name: "disallowed origin", origin: "http://evil.com", method: http.MethodGet},
		{name: "patch preflight", origin: "http://localhost:5173", method: http.MethodOptions, preflightFor: http.MethodPatch, expectedOrigin: "http://localhost:5173"},
		{name: "put preflight", origin: "http://localhost:5173", method: http.MethodOptions, preflightFor: http.MethodPut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/agents", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflightFor != "" {
				req.Header.Set("Access-Control-Request-Method", tt.preflightFor)
			}
			rec := httptest.NewRecorder()
			corsHandler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.expectedOrigin {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.expectedOrigin, got)
			}
		})
	}
}
