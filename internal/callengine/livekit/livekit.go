package livekit

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/chatwave/chatwave-server/internal/callengine"
)

// LiveKitEngine implements callengine.Engine using LiveKit as the media backend.
type LiveKitEngine struct {
	apiKey    string
	apiSecret string
	wsURL     string
}

// New creates a new LiveKitEngine.
func New(apiKey, apiSecret, wsURL string) *LiveKitEngine {
	return &LiveKitEngine{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
	}
}

// CreateCall creates a LiveKit room for the call. LiveKit creates rooms
// on-demand when the first user joins, so only the name is generated here.
func (e *LiveKitEngine) CreateCall(_ context.Context, callID string) (string, error) {
	return fmt.Sprintf("chatwave-call-%s", callID), nil
}

// EndCall terminates the LiveKit room. Rooms auto-expire when empty, so
// this is a no-op for the dev setup.
func (e *LiveKitEngine) EndCall(_ context.Context, _ string) error {
	return nil
}

// GenerateJoinInfo creates join credentials for a user to join the call.
func (e *LiveKitEngine) GenerateJoinInfo(_ context.Context, externalRoomID, userID, displayName string) (*callengine.JoinInfo, error) {
	if externalRoomID == "" {
		return nil, fmt.Errorf("call has no external room ID")
	}

	identity := "user-" + userID

	at := auth.NewAccessToken(e.apiKey, e.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     externalRoomID,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(displayName).
		SetValidFor(time.Hour)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &callengine.JoinInfo{
		URL:      e.wsURL,
		Token:    token,
		RoomName: externalRoomID,
		Identity: identity,
	}, nil
}

// Ensure LiveKitEngine implements callengine.Engine
var _ callengine.Engine = (*LiveKitEngine)(nil)
