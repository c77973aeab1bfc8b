package http

import (
	"bytes"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/admission"
	"github.com/chatwave/chatwave-server/internal/auth"
	"github.com/chatwave/chatwave-server/internal/chat"
	"github.com/chatwave/chatwave-server/internal/config"
	"github.com/chatwave/chatwave-server/internal/conversation"
	"github.com/chatwave/chatwave-server/internal/fanout"
	"github.com/chatwave/chatwave-server/internal/presence"
	"github.com/chatwave/chatwave-server/internal/store"
	"github.com/chatwave/chatwave-server/internal/store/sqlite"
)

type testEnv struct {
	handler   stdhttp.Handler
	store     store.Store
	auth      *auth.Service
	admission *admission.Controller
}

// generousLimits keeps admission out of the way for tests that are not
// about admission itself.
func generousLimits() map[admission.Class]admission.Limit {
	limits := admission.DefaultLimits()
	for class, limit := range limits {
		limit.Max = 10000
		limits[class] = limit
	}
	return limits
}

func newTestEnv(t *testing.T, limits map[admission.Class]admission.Limit) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	disabledLogger := zerolog.Nop()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test-clients",
		TTL:      time.Hour,
	})

	registry := presence.NewRegistry()
	dispatcher := fanout.New(registry, &disabledLogger)
	index := conversation.NewIndex(st, st, 30*24*time.Hour)
	chatService := chat.NewService(st, dispatcher, index, &disabledLogger)
	controller := admission.New(limits, &disabledLogger)

	cfg := config.Default()
	server := NewServer(Deps{
		Store:      st,
		Auth:       authService,
		Chat:       chatService,
		Registry:   registry,
		Dispatcher: dispatcher,
		Admission:  controller,
	}, &cfg, &disabledLogger)

	return &testEnv{
		handler:   server.Handler,
		store:     st,
		auth:      authService,
		admission: controller,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

// registerUser signs a user up over the HTTP surface and returns the
// issued token together with the new user.
func (e *testEnv) registerUser(t *testing.T, username string) (string, UserResponse) {
	t.Helper()

	resp := e.do(t, stdhttp.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	if resp.Code != stdhttp.StatusCreated {
		t.Fatalf("failed to register %s: status %d: %s", username, resp.Code, resp.Body.String())
	}

	var authResp AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &authResp); err != nil {
		t.Fatalf("failed to unmarshal auth response: %v", err)
	}
	return authResp.Token, authResp.User
}

func decodeJSON[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
	return out
}
