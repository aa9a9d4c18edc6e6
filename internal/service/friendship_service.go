package service

import (
	"context"
	"errors"
	"time"

	"github.com/soma-lab/relation-core/internal/cache"
	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
)

// FriendshipActionType 好友操作
type FriendshipActionType string

const (
	FriendshipActionAdd    FriendshipActionType = "ADD"
	FriendshipActionReject FriendshipActionType = "REJECT"
)

// FriendListItem 好友列表项：对方快照 + 邀请状态 + 发起时间
type FriendListItem struct {
	User      *cache.UserSnapshot `json:"user"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

type FriendPage struct {
	Items      []*FriendListItem `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// FriendshipService 好友邀请状态机。
// 每个有序对的状态由两行邀请（正向 / 反向）推导：
// NONE → 无行；PENDING_OUTGOING → 仅我方 SENT；PENDING_INCOMING → 仅对方 SENT；
// FRIENDS → 双向 FRIENDS。
type FriendshipService interface {
	FriendshipAction(ctx context.Context, senderID, targetID int64, action FriendshipActionType) error
	ListFriends(ctx context.Context, userID int64, page repository.PageRequest) (*FriendPage, error)
	ListAnothersFriends(ctx context.Context, userID int64, page repository.PageRequest) (*FriendPage, error)
}

type friendshipService struct {
	store      *repository.Store
	following  FollowingService
	dispatcher Dispatcher
	snapshots  *cache.Snapshots
}

func NewFriendshipService(store *repository.Store, following FollowingService, dispatcher Dispatcher, snapshots *cache.Snapshots) FriendshipService {
	return &friendshipService{store: store, following: following, dispatcher: dispatcher, snapshots: snapshots}
}

func (s *friendshipService) FriendshipAction(ctx context.Context, senderID, targetID int64, action FriendshipActionType) error {
	existing, err := s.findInvitation(ctx, senderID, targetID)
	if err != nil {
		return err
	}
	reversed, err := s.findInvitation(ctx, targetID, senderID)
	if err != nil {
		return err
	}

	switch action {
	case FriendshipActionAdd:
		switch {
		case senderID == targetID:
			return ErrFriendSelf
		case existing != nil && reversed != nil:
			return ErrAlreadyFriends
		case existing != nil:
			return ErrInvitationExists
		case reversed != nil:
			return s.confirmInvitation(ctx, senderID, targetID, reversed)
		default:
			ok, err := s.store.Users.Exists(ctx, targetID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrUserNotFound
			}
			return s.sendInvitation(ctx, senderID, targetID)
		}
	case FriendshipActionReject:
		switch {
		case existing != nil && reversed != nil:
			return s.deleteFriendship(ctx, existing, reversed, senderID, targetID)
		case existing != nil:
			return s.store.Invitations.Delete(ctx, existing.ID)
		case reversed != nil:
			return s.store.Invitations.Delete(ctx, reversed.ID)
		default:
			return ErrInvitationNotFound
		}
	default:
		return &StatusError{Code: "UNSUPPORTED_ACTION", Message: "unsupported friendship action"}
	}
}

func (s *friendshipService) findInvitation(ctx context.Context, senderID, targetID int64) (*model.FriendshipInvitation, error) {
	inv, err := s.store.Invitations.FindPair(ctx, senderID, targetID)
	if errors.Is(err, repository.ErrCorruptedInvitations) {
		return nil, ErrCorruptedState
	}
	return inv, err
}

func (s *friendshipService) sendInvitation(ctx context.Context, senderID, targetID int64) error {
	err := s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		inserted, err := tx.Invitations.CreateIfAbsent(ctx,
			repository.NewInvitation(senderID, targetID, model.InvitationStatusSent))
		if err != nil {
			return err
		}
		if !inserted {
			return ErrInvitationExists
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.dispatcher.Notify(ctx, model.FanoutKindConnectionRequest, senderID, targetID)
	return nil
}

// confirmInvitation 反向邀请已存在：建立互为 FRIENDS 的两行并补齐双向关注
func (s *friendshipService) confirmInvitation(ctx context.Context, senderID, targetID int64, reversed *model.FriendshipInvitation) error {
	err := s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		inserted, err := tx.Invitations.CreateIfAbsent(ctx,
			repository.NewInvitation(senderID, targetID, model.InvitationStatusFriends))
		if err != nil {
			return err
		}
		if !inserted {
			return ErrAlreadyFriends
		}
		return tx.Invitations.UpdateStatus(ctx, reversed.ID, model.InvitationStatusFriends)
	})
	if err != nil {
		return err
	}

	if err := s.following.CreateMutualFollowing(ctx, targetID, senderID); err != nil {
		return err
	}
	s.dispatcher.IndexSignal(ctx, model.FanoutKindFriend, targetID, senderID)
	s.dispatcher.IndexSignal(ctx, model.FanoutKindFriend, senderID, targetID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindFriend, senderID, targetID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindFriend, targetID, senderID)
	return nil
}

// deleteFriendship 确认态解除：成对删除两行邀请，回置 is_friend，不删关注边
func (s *friendshipService) deleteFriendship(ctx context.Context, oneSide, reversedSide *model.FriendshipInvitation, oneSideUserID, reversedSideUserID int64) error {
	err := s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		return tx.Invitations.Delete(ctx, oneSide.ID, reversedSide.ID)
	})
	if err != nil {
		return err
	}

	if err := s.following.ClearFriendFlag(ctx, oneSideUserID, reversedSideUserID); err != nil {
		return err
	}
	s.dispatcher.IndexSignal(ctx, model.FanoutKindUnfriend, oneSideUserID, reversedSideUserID)
	s.dispatcher.IndexSignal(ctx, model.FanoutKindUnfriend, reversedSideUserID, oneSideUserID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindUnfriend, oneSideUserID, reversedSideUserID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindUnfriend, reversedSideUserID, oneSideUserID)
	return nil
}

func (s *friendshipService) ListFriends(ctx context.Context, userID int64, page repository.PageRequest) (*FriendPage, error) {
	invitations, next, err := s.store.Invitations.ListForUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, invitations, next)
}

func (s *friendshipService) ListAnothersFriends(ctx context.Context, userID int64, page repository.PageRequest) (*FriendPage, error) {
	invitations, next, err := s.store.Invitations.ListConfirmed(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, invitations, next)
}

func (s *friendshipService) hydrate(ctx context.Context, invitations []*model.FriendshipInvitation, next string) (*FriendPage, error) {
	ids := make([]int64, len(invitations))
	for i, inv := range invitations {
		ids[i] = inv.SenderID
	}
	snaps, err := loadUserSnapshots(ctx, s.store, s.snapshots, ids)
	if err != nil {
		return nil, err
	}

	items := make([]*FriendListItem, 0, len(invitations))
	for _, inv := range invitations {
		snap, ok := snaps[inv.SenderID]
		if !ok {
			continue
		}
		items = append(items, &FriendListItem{User: snap, Status: inv.Status, CreatedAt: inv.CreatedAt})
	}
	return &FriendPage{Items: items, NextCursor: next}, nil
}
