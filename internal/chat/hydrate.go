package chat

import (
	"context"

	"github.com/samber/lo"

	"github.com/chatwave/chatwave-server/internal/apperr"
	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/store"
)

// hydrateMessage expands the user references of a message into profile
// summaries. Every payload leaving the fan-out boundary goes through here;
// clients never receive a bare identifier.
func (s *Service) hydrateMessage(ctx context.Context, m *store.Message) (*proto.MessageView, error) {
	ids := []string{m.SenderID}
	if m.ReceiverID != "" {
		ids = append(ids, m.ReceiverID)
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return buildMessageView(m, profiles), nil
}

// hydrateMessages expands a batch of messages with a single profile fetch.
func (s *Service) hydrateMessages(ctx context.Context, messages []*store.Message) ([]*proto.MessageView, error) {
	ids := make([]string, 0, len(messages)*2)
	for _, m := range messages {
		ids = append(ids, m.SenderID)
		if m.ReceiverID != "" {
			ids = append(ids, m.ReceiverID)
		}
	}
	profiles, err := s.store.GetProfiles(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, apperr.Storage(err)
	}

	views := make([]*proto.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, buildMessageView(m, profiles))
	}
	return views, nil
}

func buildMessageView(m *store.Message, profiles map[string]store.ProfileSummary) *proto.MessageView {
	view := &proto.MessageView{
		ID:              m.ID,
		ConversationKey: m.ConversationKey(),
		Sender:          profileOf(profiles, m.SenderID),
		GroupID:         m.GroupID,
		Text:            m.Text,
		Attachments:     m.Attachments,
		Edited:          m.Edited,
		EditedAt:        m.EditedAt,
		Pinned:          m.Pinned,
		PinnedAt:        m.PinnedAt,
		PinnedBy:        m.PinnedBy,
		Seen:            m.Seen,
		Listened:        m.Listened,
		Saved:           m.Saved,
		Reactions:       m.Reactions,
		CreatedAt:       m.CreatedAt,
	}
	if m.ReceiverID != "" {
		receiver := profileOf(profiles, m.ReceiverID)
		view.Receiver = &receiver
	}
	return view
}

// hydrateGroup expands a group's admin and members into profile summaries.
func (s *Service) hydrateGroup(ctx context.Context, g *store.Group) (*proto.GroupView, error) {
	profiles, err := s.store.GetProfiles(ctx, append([]string{g.AdminID}, g.Members...))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	members := make([]store.ProfileSummary, 0, len(g.Members))
	for _, id := range g.Members {
		members = append(members, profileOf(profiles, id))
	}
	return &proto.GroupView{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		AvatarURL:   g.AvatarURL,
		Admin:       profileOf(profiles, g.AdminID),
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}, nil
}

func (s *Service) profile(ctx context.Context, userID string) (store.ProfileSummary, error) {
	profiles, err := s.store.GetProfiles(ctx, []string{userID})
	if err != nil {
		return store.ProfileSummary{}, apperr.Storage(err)
	}
	return profileOf(profiles, userID), nil
}

// profileOf falls back to a bare identifier projection when the user row
// is gone (deleted account); the payload shape stays intact.
func profileOf(profiles map[string]store.ProfileSummary, id string) store.ProfileSummary {
	if p, ok := profiles[id]; ok {
		return p
	}
	return store.ProfileSummary{ID: id}
}
