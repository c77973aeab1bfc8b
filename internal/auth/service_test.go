package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatwave/chatwave-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewService(st, &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test-clients",
		TTL:      time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	token, user, err := s.Register(ctx, "alice", "secret123", "Alice")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if token == "" {
		t.Error("expected non-empty token")
	}
	if user.DisplayName != "Alice" {
		t.Errorf("display name: got %q, want Alice", user.DisplayName)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	loginToken, loginUser, err := s.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loginToken == "" || loginUser.ID != user.ID {
		t.Errorf("unexpected login result")
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "ab", "secret123", ""); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("short username: got %v, want ErrInvalidUsername", err)
	}
	if _, _, err := s.Register(ctx, "alice", "short", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("short password: got %v, want ErrInvalidPassword", err)
	}

	if _, _, err := s.Register(ctx, "alice", "secret123", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, _, err := s.Register(ctx, "alice", "other-password", ""); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate: got %v, want ErrUserExists", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, _, err := s.Register(ctx, "alice", "secret123", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// unknown user and wrong password are indistinguishable
	if _, _, err := s.Login(ctx, "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := s.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateTokenRejectsForgery(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	token, _, err := s.Register(ctx, "alice", "secret123", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	other := &JWTConfig{Secret: []byte("other-secret"), Issuer: "test", Audience: "test-clients", TTL: time.Hour}
	if _, err := ValidateToken(other, token); err == nil {
		t.Error("token signed with a different secret should not validate")
	}

	wrongIssuer := &JWTConfig{Secret: []byte("test-secret"), Issuer: "someone-else", Audience: "test-clients", TTL: time.Hour}
	if _, err := ValidateToken(wrongIssuer, token); err == nil {
		t.Error("token with mismatched issuer should not validate")
	}

	if _, err := s.ValidateToken("not-a-token"); err == nil {
		t.Error("garbage token should not validate")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := &JWTConfig{Secret: []byte("test-secret"), Issuer: "test", Audience: "test-clients", TTL: -time.Minute}

	token, err := GenerateToken(cfg, "user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ValidateToken(cfg, token); err == nil {
		t.Error("expired token should not validate")
	}
}
