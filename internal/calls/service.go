// Package calls implements direct-call signaling on top of the fan-out
// dispatcher. Call state is process-local, like presence: a restart drops
// all in-flight calls.
package calls

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/apperr"
	"github.com/chatwave/chatwave-server/internal/callengine"
	"github.com/chatwave/chatwave-server/internal/fanout"
	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/store"
)

type status string

const (
	statusRinging status = "ringing"
	statusActive  status = "active"
	statusEnded   status = "ended"
)

type call struct {
	ID             string
	CallerID       string
	CalleeID       string
	Status         status
	ExternalRoomID string
	CreatedAt      time.Time
}

// Service tracks in-flight calls and signals participants via fan-out.
type Service struct {
	mu     sync.Mutex
	calls  map[string]*call
	engine callengine.Engine
	users  store.UserStore
	fanout *fanout.Dispatcher
	log    *zerolog.Logger
}

// NewService builds the call signaling service. A nil engine disables calls.
func NewService(engine callengine.Engine, users store.UserStore, dispatcher *fanout.Dispatcher, logger *zerolog.Logger) *Service {
	return &Service{
		calls:  make(map[string]*call),
		engine: engine,
		users:  users,
		fanout: dispatcher,
		log:    logger,
	}
}

// Enabled reports whether a media backend is configured.
func (s *Service) Enabled() bool { return s.engine != nil }

func (s *Service) profiles(ctx context.Context, ids ...string) (map[string]store.ProfileSummary, error) {
	profiles, err := s.users.GetProfiles(ctx, ids)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return profiles, nil
}

// Start initiates a direct call: callee gets callIncoming, caller gets
// callRinging back over its own connections.
func (s *Service) Start(ctx context.Context, callerID, calleeID string) (*proto.CallData, error) {
	if !s.Enabled() {
		return nil, apperr.Validation("calls are disabled")
	}
	if calleeID == "" || calleeID == callerID {
		return nil, apperr.Validation("a callee different from the caller is required")
	}
	if _, err := s.users.GetUserByID(ctx, calleeID); err != nil {
		return nil, apperr.NotFound("callee")
	}

	c := &call{
		ID:        uuid.NewString(),
		CallerID:  callerID,
		CalleeID:  calleeID,
		Status:    statusRinging,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.calls[c.ID] = c
	s.mu.Unlock()

	profiles, err := s.profiles(ctx, callerID, calleeID)
	if err != nil {
		return nil, err
	}
	from, to := profiles[callerID], profiles[calleeID]
	data := &proto.CallData{CallID: c.ID, From: from, To: &to, CreatedAt: c.CreatedAt}

	s.fanout.NotifyUser(calleeID, proto.EventCallIncoming, data)
	s.fanout.NotifyUser(callerID, proto.EventCallRinging, data)
	s.log.Info().Str("call_id", c.ID).Str("caller", callerID).Str("callee", calleeID).Msg("call started")
	return data, nil
}

func (s *Service) get(callID string) (*call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[callID]
	if !ok {
		return nil, apperr.NotFound("call")
	}
	return c, nil
}

// Accept transitions a ringing call to active, creates the media room and
// delivers join credentials to both participants.
func (s *Service) Accept(ctx context.Context, actorID, callID string) (*proto.CallData, error) {
	c, err := s.get(callID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if c.CalleeID != actorID {
		s.mu.Unlock()
		return nil, apperr.Authorization("only the callee can accept")
	}
	if c.Status != statusRinging {
		s.mu.Unlock()
		return nil, apperr.Validation("call is not ringing")
	}
	c.Status = statusActive
	s.mu.Unlock()

	roomID, err := s.engine.CreateCall(ctx, c.ID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	c.ExternalRoomID = roomID

	profiles, err := s.profiles(ctx, c.CallerID, c.CalleeID)
	if err != nil {
		return nil, err
	}
	from, to := profiles[c.CallerID], profiles[c.CalleeID]
	accepted := &proto.CallData{CallID: c.ID, From: from, To: &to, CreatedAt: c.CreatedAt}
	s.fanout.NotifyUser(c.CallerID, proto.EventCallAccepted, accepted)

	for _, p := range []store.ProfileSummary{from, to} {
		info, err := s.engine.GenerateJoinInfo(ctx, roomID, p.ID, p.DisplayName)
		if err != nil {
			s.log.Error().Err(err).Str("call_id", c.ID).Str("user_id", p.ID).Msg("join info generation failed")
			continue
		}
		data := &proto.CallData{
			CallID:    c.ID,
			From:      from,
			To:        &to,
			CreatedAt: c.CreatedAt,
			JoinInfo: &proto.CallJoinInfo{
				URL:      info.URL,
				Token:    info.Token,
				RoomName: info.RoomName,
				Identity: info.Identity,
			},
		}
		s.fanout.NotifyUser(p.ID, proto.EventCallJoinInfo, data)
	}
	return accepted, nil
}

// Reject declines a ringing call.
func (s *Service) Reject(ctx context.Context, actorID, callID, reason string) (*proto.CallData, error) {
	c, err := s.get(callID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if c.CalleeID != actorID {
		s.mu.Unlock()
		return nil, apperr.Authorization("only the callee can reject")
	}
	if c.Status != statusRinging {
		s.mu.Unlock()
		return nil, apperr.Validation("call is not ringing")
	}
	c.Status = statusEnded
	delete(s.calls, c.ID)
	s.mu.Unlock()

	profiles, err := s.profiles(ctx, c.CallerID, c.CalleeID)
	if err != nil {
		return nil, err
	}
	from, to := profiles[c.CallerID], profiles[c.CalleeID]
	data := &proto.CallData{CallID: c.ID, From: from, To: &to, Reason: reason, CreatedAt: c.CreatedAt}
	s.fanout.NotifyUser(c.CallerID, proto.EventCallRejected, data)
	return data, nil
}

// End terminates a call from either side.
func (s *Service) End(ctx context.Context, actorID, callID, reason string) (*proto.CallData, error) {
	c, err := s.get(callID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if actorID != c.CallerID && actorID != c.CalleeID {
		s.mu.Unlock()
		return nil, apperr.Authorization("actor is not a call participant")
	}
	roomID := c.ExternalRoomID
	c.Status = statusEnded
	delete(s.calls, c.ID)
	s.mu.Unlock()

	if roomID != "" {
		if err := s.engine.EndCall(ctx, roomID); err != nil {
			s.log.Warn().Err(err).Str("call_id", c.ID).Msg("media room teardown failed")
		}
	}

	profiles, err := s.profiles(ctx, c.CallerID, c.CalleeID)
	if err != nil {
		return nil, err
	}
	from, to := profiles[c.CallerID], profiles[c.CalleeID]
	data := &proto.CallData{CallID: c.ID, From: from, To: &to, Reason: reason, CreatedAt: c.CreatedAt}
	s.fanout.Notify([]string{c.CallerID, c.CalleeID}, proto.EventCallEnded, data)
	return data, nil
}
