package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, DirectKey("alice", "bob"), DirectKey("bob", "alice"))
	require.Equal(t, "dm:alice:bob", DirectKey("bob", "alice"))
}

func TestConversationKeyPrefersGroup(t *testing.T) {
	direct := Message{SenderID: "alice", ReceiverID: "bob"}
	require.Equal(t, "dm:alice:bob", direct.ConversationKey())

	group := Message{SenderID: "alice", GroupID: "g1"}
	require.Equal(t, "grp:g1", group.ConversationKey())
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		message Message
		wantErr bool
	}{
		{
			name:    "valid direct text",
			message: Message{SenderID: "a", ReceiverID: "b", Text: "hi"},
		},
		{
			name:    "valid group attachment only",
			message: Message{SenderID: "a", GroupID: "g", Attachments: []Attachment{{URL: "u", Kind: AttachmentImage}}},
		},
		{
			name:    "missing sender",
			message: Message{ReceiverID: "b", Text: "hi"},
			wantErr: true,
		},
		{
			name:    "no destination",
			message: Message{SenderID: "a", Text: "hi"},
			wantErr: true,
		},
		{
			name:    "both destinations",
			message: Message{SenderID: "a", ReceiverID: "b", GroupID: "g", Text: "hi"},
			wantErr: true,
		},
		{
			name:    "whitespace text and no attachments",
			message: Message{SenderID: "a", ReceiverID: "b", Text: "   "},
			wantErr: true,
		},
		{
			name:    "attachment without url",
			message: Message{SenderID: "a", ReceiverID: "b", Attachments: []Attachment{{Kind: AttachmentImage}}},
			wantErr: true,
		},
		{
			name:    "unknown attachment kind",
			message: Message{SenderID: "a", ReceiverID: "b", Attachments: []Attachment{{URL: "u", Kind: "gif"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.message.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestGroupParticipation(t *testing.T) {
	g := Group{AdminID: "alice", Members: []string{"bob"}}

	require.True(t, g.IsParticipant("alice"))
	require.True(t, g.IsParticipant("bob"))
	require.False(t, g.IsParticipant("carol"))

	require.False(t, g.IsMember("alice"), "admin is never a member")
	require.True(t, g.IsMember("bob"))
}
