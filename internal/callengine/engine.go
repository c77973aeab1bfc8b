package callengine

import "context"

// JoinInfo contains information needed to join a call.
type JoinInfo struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

// Engine abstracts the media backend for calls.
type Engine interface {
	// CreateCall creates a media room for the call and returns its
	// external room identifier.
	CreateCall(ctx context.Context, callID string) (externalRoomID string, err error)

	// EndCall terminates the media room.
	EndCall(ctx context.Context, externalRoomID string) error

	// GenerateJoinInfo creates join credentials for a user.
	GenerateJoinInfo(ctx context.Context, externalRoomID, userID, displayName string) (*JoinInfo, error)
}
