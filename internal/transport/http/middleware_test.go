package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chatwave/chatwave-server/internal/admission"
	"github.com/chatwave/chatwave-server/internal/auth"
)

func TestAuthMiddlewareRejections(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	env.registerUser(t, "alice")

	forged, err := auth.GenerateToken(&auth.JWTConfig{
		Secret:   []byte("wrong-secret"),
		Issuer:   "test",
		Audience: "test-clients",
		TTL:      time.Hour,
	}, "u1", "alice")
	if err != nil {
		t.Fatalf("failed to sign forged token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong signing key", "Bearer " + forged},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp := httptest.NewRecorder()
		env.handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d: %s", tc.name, resp.Code, resp.Body.String())
		}
	}
}

func TestAdmissionRejectsOverLimit(t *testing.T) {
	limits := generousLimits()
	limits[admission.ClassAuth] = admission.Limit{Max: 2, Window: time.Minute}
	env := newTestEnv(t, limits)

	// First two attempts pass the gate regardless of outcome.
	env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ghost", "password": "password123"})
	env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ghost", "password": "password123"})

	resp := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "ghost", "password": "password123"})
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header on the rejection")
	}
	body := decodeJSON[ErrorResponse](t, resp)
	if body.RetryAfter < 1 {
		t.Errorf("expected retryAfter of at least 1 second, got %d", body.RetryAfter)
	}
}

func TestAdmissionClassesAreIndependent(t *testing.T) {
	limits := generousLimits()
	limits[admission.ClassAuth] = admission.Limit{Max: 2, Window: time.Minute}
	env := newTestEnv(t, limits)

	token, _ := env.registerUser(t, "alice")

	// Exhaust the auth class.
	env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "password123"})
	resp := env.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "password123"})
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after exhausting auth budget, got %d", resp.Code)
	}

	// Read traffic rides a different class and is unaffected.
	resp = env.do(t, http.MethodGet, "/api/users/me", token, nil)
	if resp.Code != http.StatusOK {
		t.Errorf("expected status 200 on the api class, got %d: %s", resp.Code, resp.Body.String())
	}
}
