package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/chatwave/chatwave-server/internal/apperr"
	"github.com/chatwave/chatwave-server/internal/proto"
	"github.com/chatwave/chatwave-server/internal/store"
)

// CreateGroup creates a group owned by the creator. The admin is never
// part of the member set.
func (s *Service) CreateGroup(ctx context.Context, adminID, name, description, avatarURL string, memberIDs []string) (*proto.GroupView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	members := lo.Uniq(lo.Filter(memberIDs, func(id string, _ int) bool {
		return id != "" && id != adminID
	}))
	profiles, err := s.store.GetProfiles(ctx, members)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	for _, id := range members {
		if _, ok := profiles[id]; !ok {
			return nil, apperr.Validation("unknown member %q", id)
		}
	}

	g := &store.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AvatarURL:   avatarURL,
		AdminID:     adminID,
		Members:     members,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, apperr.Storage(err)
	}

	view, err := s.hydrateGroup(ctx, g)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(append([]string{adminID}, members...), proto.EventGroupCreated, view)
	return view, nil
}

// adminGroup loads a group and verifies the actor is its admin.
func (s *Service) adminGroup(ctx context.Context, actorID, groupID string) (*store.Group, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, mapStoreErr(err, "group")
	}
	if g.AdminID != actorID {
		return nil, apperr.Authorization("only the group admin may do this")
	}
	return g, nil
}

// UpdateGroupInfo updates name, description and picture. Admin only.
func (s *Service) UpdateGroupInfo(ctx context.Context, actorID, groupID, name, description, avatarURL string) (*proto.GroupView, error) {
	g, err := s.adminGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	if err := s.store.UpdateGroupInfo(ctx, groupID, name, description, avatarURL); err != nil {
		return nil, mapStoreErr(err, "group")
	}
	g.Name, g.Description, g.AvatarURL = name, description, avatarURL

	view, err := s.hydrateGroup(ctx, g)
	if err != nil {
		return nil, err
	}
	s.fanout.Notify(append([]string{g.AdminID}, g.Members...), proto.EventGroupInfoUpdated, view)
	return view, nil
}

// AddMember adds a user to the group. Admin only; the admin itself can
// never become a member.
func (s *Service) AddMember(ctx context.Context, actorID, groupID, userID string) (*proto.GroupMemberData, error) {
	g, err := s.adminGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if userID == g.AdminID {
		return nil, apperr.Validation("the admin is not a member")
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, mapStoreErr(err, "user")
	}

	if err := s.store.AddMember(ctx, groupID, userID); err != nil {
		return nil, mapStoreErr(err, "group")
	}

	user, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := &proto.GroupMemberData{GroupID: groupID, User: user}
	audience := append([]string{g.AdminID, userID}, g.Members...)
	s.fanout.Notify(audience, proto.EventGroupMemberAdded, data)
	return data, nil
}

// RemoveMember removes a user from the group. Admin only. The removed
// member is part of the audience so its devices drop the conversation.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, userID string) (*proto.GroupMemberData, error) {
	g, err := s.adminGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if userID == g.AdminID {
		return nil, apperr.Validation("the admin cannot be removed")
	}
	if !g.IsMember(userID) {
		return nil, apperr.NotFound("group member")
	}

	if err := s.store.RemoveMember(ctx, groupID, userID); err != nil {
		return nil, mapStoreErr(err, "group member")
	}

	user, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := &proto.GroupMemberData{GroupID: groupID, User: user}
	audience := append([]string{g.AdminID}, g.Members...)
	s.fanout.Notify(audience, proto.EventGroupMemberRemoved, data)
	return data, nil
}

// LeaveGroup removes the acting member from the group. The admin cannot
// leave: ownership transfer is unsupported, so the admin's only exits are
// deleting the group or staying.
func (s *Service) LeaveGroup(ctx context.Context, actorID, groupID string) (*proto.GroupMemberData, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, mapStoreErr(err, "group")
	}
	if actorID == g.AdminID {
		return nil, apperr.Authorization("the admin cannot leave the group; delete it instead")
	}
	if !g.IsMember(actorID) {
		return nil, apperr.NotFound("group member")
	}

	if err := s.store.RemoveMember(ctx, groupID, actorID); err != nil {
		return nil, mapStoreErr(err, "group member")
	}

	user, err := s.profile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	data := &proto.GroupMemberData{GroupID: groupID, User: user}
	audience := append([]string{g.AdminID}, g.Members...)
	s.fanout.Notify(audience, proto.EventGroupMemberLeft, data)
	return data, nil
}

// DeleteGroup removes the group, its membership and its entire message
// history. Admin only.
func (s *Service) DeleteGroup(ctx context.Context, actorID, groupID string) (*proto.GroupDeletedData, error) {
	g, err := s.adminGroup(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	audience := append([]string{g.AdminID}, g.Members...)
	convKey := store.GroupKey(groupID)

	if err := s.store.DeleteConversation(ctx, convKey); err != nil {
		return nil, apperr.Storage(err)
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return nil, mapStoreErr(err, "group")
	}

	data := &proto.GroupDeletedData{GroupID: groupID, ConversationKey: convKey}
	s.fanout.Notify(audience, proto.EventGroupDeleted, data)
	return data, nil
}

// GetGroup returns the hydrated group. Participants only.
func (s *Service) GetGroup(ctx context.Context, actorID, groupID string) (*proto.GroupView, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, mapStoreErr(err, "group")
	}
	if !g.IsParticipant(actorID) {
		return nil, apperr.Authorization("actor is not a participant of the group")
	}
	return s.hydrateGroup(ctx, g)
}
