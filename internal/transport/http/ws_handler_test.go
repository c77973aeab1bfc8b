package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/chatwave/chatwave-server/internal/proto"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startTestServer(t *testing.T) (*testEnv, *httptest.Server) {
	t.Helper()

	env := newTestEnv(t, generousLimits())
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)
	return env, ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	var env wsEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("ws read failed: %v", err)
	}
	return env
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	_, ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=not-a-token"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "done")
		t.Fatal("expected the handshake to fail with an invalid token")
	}
}

func TestWebSocketPresenceSnapshot(t *testing.T) {
	env, ts := startTestServer(t)
	aliceToken, alice := env.registerUser(t, "alice")
	bobToken, bob := env.registerUser(t, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceConn := dialWS(t, ctx, ts, aliceToken)

	first := readEvent(t, ctx, aliceConn)
	if first.Event != proto.EventOnlineUsers {
		t.Fatalf("expected %q as the first event, got %q", proto.EventOnlineUsers, first.Event)
	}
	var online []string
	if err := json.Unmarshal(first.Data, &online); err != nil {
		t.Fatalf("failed to unmarshal presence snapshot: %v", err)
	}
	if len(online) != 1 || online[0] != alice.ID {
		t.Fatalf("expected snapshot [%s], got %v", alice.ID, online)
	}

	// A second connection triggers a fresh full snapshot on both.
	dialWS(t, ctx, ts, bobToken)

	second := readEvent(t, ctx, aliceConn)
	if second.Event != proto.EventOnlineUsers {
		t.Fatalf("expected %q after the second connect, got %q", proto.EventOnlineUsers, second.Event)
	}
	if err := json.Unmarshal(second.Data, &online); err != nil {
		t.Fatalf("failed to unmarshal presence snapshot: %v", err)
	}
	if len(online) != 2 {
		t.Fatalf("expected 2 online users, got %v", online)
	}
	seen := map[string]bool{}
	for _, id := range online {
		seen[id] = true
	}
	if !seen[alice.ID] || !seen[bob.ID] {
		t.Errorf("expected both %s and %s online, got %v", alice.ID, bob.ID, online)
	}
}

func TestWebSocketReceivesMessageEvents(t *testing.T) {
	env, ts := startTestServer(t)
	aliceToken, alice := env.registerUser(t, "alice")
	bobToken, _ := env.registerUser(t, "bob")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	aliceConn := dialWS(t, ctx, ts, aliceToken)
	readEvent(t, ctx, aliceConn) // own presence snapshot

	// A REST mutation from another user lands on the socket.
	body, _ := json.Marshal(SendMessageRequest{ReceiverID: alice.ID, Text: "ping"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL+"/api/messages", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bobToken)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("send request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	event := readEvent(t, ctx, aliceConn)
	if event.Event != proto.EventNewMessage {
		t.Fatalf("expected %q, got %q", proto.EventNewMessage, event.Event)
	}
	var view proto.MessageView
	if err := json.Unmarshal(event.Data, &view); err != nil {
		t.Fatalf("failed to unmarshal message view: %v", err)
	}
	if view.Text != "ping" {
		t.Errorf("expected text 'ping', got %q", view.Text)
	}
}
