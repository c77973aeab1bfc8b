package http

import (
	"net/http"
	"testing"

	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/store"
)

func TestSendAndHistory(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, alice := env.registerUser(t, "alice")
	_, bob := env.registerUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{
		ReceiverID: bob.ID,
		Text:       "hello bob",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	view := decodeJSON[proto.MessageView](t, resp)
	wantKey := store.DirectKey(alice.ID, bob.ID)
	if view.ConversationKey != wantKey {
		t.Errorf("expected conversation key %q, got %q", wantKey, view.ConversationKey)
	}
	if view.Sender.ID != alice.ID {
		t.Errorf("expected sender %q, got %q", alice.ID, view.Sender.ID)
	}

	resp = env.do(t, http.MethodGet, "/api/conversations/"+wantKey+"/messages", aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	history := decodeJSON[HistoryResponse](t, resp)
	if len(history.Messages) != 1 {
		t.Fatalf("expected 1 message in history, got %d", len(history.Messages))
	}
	if history.Messages[0].Text != "hello bob" {
		t.Errorf("expected text 'hello bob', got %q", history.Messages[0].Text)
	}
	if history.HasMore {
		t.Error("expected hasMore=false for a one-message history")
	}
}

func TestSendValidation(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, _ := env.registerUser(t, "alice")
	_, bob := env.registerUser(t, "bob")

	// Whitespace-only text with no attachments has no content.
	resp := env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{
		ReceiverID: bob.ID,
		Text:       "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("blank message: expected status 400, got %d", resp.Code)
	}

	// Unknown receiver.
	resp = env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{
		ReceiverID: "no-such-user",
		Text:       "hello?",
	})
	if resp.Code != http.StatusNotFound {
		t.Errorf("ghost receiver: expected status 404, got %d", resp.Code)
	}
}

func TestHistoryRequiresParticipation(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, alice := env.registerUser(t, "alice")
	_, bob := env.registerUser(t, "bob")
	charlieToken, _ := env.registerUser(t, "charlie")

	env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{
		ReceiverID: bob.ID,
		Text:       "private",
	})

	key := store.DirectKey(alice.ID, bob.ID)
	resp := env.do(t, http.MethodGet, "/api/conversations/"+key+"/messages", charlieToken, nil)
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for an outsider, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestEditAuthorization(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, _ := env.registerUser(t, "alice")
	bobToken, bob := env.registerUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{
		ReceiverID: bob.ID,
		Text:       "orignal",
	})
	sent := decodeJSON[proto.MessageView](t, resp)

	// Only the sender may edit.
	resp = env.do(t, http.MethodPut, "/api/messages/"+sent.ID, bobToken, EditMessageRequest{Text: "hijacked"})
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for non-sender edit, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodPut, "/api/messages/"+sent.ID, aliceToken, EditMessageRequest{Text: "original"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	edited := decodeJSON[proto.MessageView](t, resp)
	if !edited.Edited {
		t.Error("expected the edited flag to be set")
	}
	if edited.Text != "original" {
		t.Errorf("expected text 'original', got %q", edited.Text)
	}
}

func TestDeleteForEveryone(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, alice := env.registerUser(t, "alice")
	_, bob := env.registerUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{
		ReceiverID: bob.ID,
		Text:       "to be removed",
	})
	sent := decodeJSON[proto.MessageView](t, resp)

	resp = env.do(t, http.MethodDelete, "/api/messages/"+sent.ID+"?type=forEveryone", aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	key := store.DirectKey(alice.ID, bob.ID)
	resp = env.do(t, http.MethodGet, "/api/conversations/"+key+"/messages", aliceToken, nil)
	history := decodeJSON[HistoryResponse](t, resp)
	if len(history.Messages) != 0 {
		t.Errorf("expected empty history after deletion, got %d messages", len(history.Messages))
	}
}

func TestConversationList(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, _ := env.registerUser(t, "alice")
	_, bob := env.registerUser(t, "bob")
	_, carol := env.registerUser(t, "carol")

	env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{ReceiverID: bob.ID, Text: "hey bob"})
	env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{ReceiverID: carol.ID, Text: "hey carol"})

	resp := env.do(t, http.MethodGet, "/api/conversations", aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	list := decodeJSON[ConversationsResponse](t, resp)
	if list.Total != 2 {
		t.Errorf("expected total 2, got %d", list.Total)
	}
	if len(list.Conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(list.Conversations))
	}
	// Most recent activity first.
	if list.Conversations[0].LastMessage == nil || list.Conversations[0].LastMessage.Text != "hey carol" {
		t.Errorf("expected the carol conversation first, got %+v", list.Conversations[0].LastMessage)
	}
}

func TestPinFlow(t *testing.T) {
	env := newTestEnv(t, generousLimits())
	aliceToken, _ := env.registerUser(t, "alice")
	_, bob := env.registerUser(t, "bob")

	resp := env.do(t, http.MethodPost, "/api/messages", aliceToken, SendMessageRequest{ReceiverID: bob.ID, Text: "pin me"})
	sent := decodeJSON[proto.MessageView](t, resp)

	resp = env.do(t, http.MethodPost, "/api/messages/"+sent.ID+"/pin", aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.do(t, http.MethodDelete, "/api/messages/"+sent.ID+"/pin", aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for unpin, got %d: %s", resp.Code, resp.Body.String())
	}

	// Unpinning a message that is not pinned is a validation error.
	resp = env.do(t, http.MethodDelete, "/api/messages/"+sent.ID+"/pin", aliceToken, nil)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for double unpin, got %d", resp.Code)
	}
}
