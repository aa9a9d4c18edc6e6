package service

import (
	"context"
	"time"

	"github.com/soma-lab/relation-core/internal/cache"
	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
)

// FollowListItem 关注 / 粉丝列表项：用户快照 + 建边时间
type FollowListItem struct {
	User      *cache.UserSnapshot `json:"user"`
	IsFriend  bool                `json:"is_friend"`
	CreatedAt time.Time           `json:"created_at"`
}

// FollowPage 游标分页结果
type FollowPage struct {
	Items      []*FollowListItem `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// FollowingService 关注图服务
type FollowingService interface {
	CreateFollowing(ctx context.Context, followerID, followedID int64) error
	DeleteFollowing(ctx context.Context, followerID, followedID int64) error
	IsFollower(ctx context.Context, followerID, followedID int64) (bool, error)
	ListFollowing(ctx context.Context, userID int64, page repository.PageRequest) (*FollowPage, error)
	ListFollowers(ctx context.Context, userID int64, page repository.PageRequest) (*FollowPage, error)
	// CreateMutualFollowing 好友确认时调用：幂等补齐双向边并置 is_friend
	CreateMutualFollowing(ctx context.Context, userA, userB int64) error
	// ClearFriendFlag 解除好友：仅回置 is_friend，不删边不动计数
	ClearFriendFlag(ctx context.Context, userA, userB int64) error
}

type followingService struct {
	store      *repository.Store
	dispatcher Dispatcher
	snapshots  *cache.Snapshots
}

func NewFollowingService(store *repository.Store, dispatcher Dispatcher, snapshots *cache.Snapshots) FollowingService {
	return &followingService{store: store, dispatcher: dispatcher, snapshots: snapshots}
}

func (s *followingService) CreateFollowing(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return ErrFollowSelf
	}
	// 事务外的强读只为快速失败；唯一性最终由事务内条件插入保证
	exists, err := s.store.Follows.Exists(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyFollowing
	}
	ok, err := s.store.Users.Exists(ctx, followedID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	err = s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		inserted, err := tx.Follows.CreateIfAbsent(ctx, repository.NewFollow(followerID, followedID))
		if err != nil {
			return err
		}
		if !inserted {
			// 输掉并发竞争：唯一键挡下重复边，整体回滚
			return ErrAlreadyFollowing
		}
		if err := tx.Counters.AddFollowings(ctx, followerID, 1); err != nil {
			return err
		}
		return tx.Counters.AddFollowers(ctx, followedID, 1)
	})
	if err != nil {
		return err
	}

	s.dispatcher.Notify(ctx, model.FanoutKindUserFollowing, followerID, followedID)
	s.dispatcher.IndexSignal(ctx, model.FanoutKindFollow, followerID, followedID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindFollow, followerID, followedID)
	return nil
}

func (s *followingService) DeleteFollowing(ctx context.Context, followerID, followedID int64) error {
	exists, err := s.store.Follows.Exists(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoFollowing
	}

	err = s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		deleted, err := tx.Follows.Delete(ctx, followerID, followedID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNoFollowing
		}
		if err := tx.Counters.AddFollowings(ctx, followerID, -1); err != nil {
			return err
		}
		return tx.Counters.AddFollowers(ctx, followedID, -1)
	})
	if err != nil {
		return err
	}

	s.dispatcher.IndexSignal(ctx, model.FanoutKindUnfollow, followerID, followedID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindUnfollow, followerID, followedID)
	return nil
}

func (s *followingService) IsFollower(ctx context.Context, followerID, followedID int64) (bool, error) {
	return s.store.Follows.Exists(ctx, followerID, followedID)
}

func (s *followingService) ListFollowing(ctx context.Context, userID int64, page repository.PageRequest) (*FollowPage, error) {
	follows, next, err := s.store.Follows.ListFollowing(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, follows, next, func(f *model.Follow) int64 { return f.FollowedID })
}

func (s *followingService) ListFollowers(ctx context.Context, userID int64, page repository.PageRequest) (*FollowPage, error) {
	follows, next, err := s.store.Follows.ListFollowers(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, follows, next, func(f *model.Follow) int64 { return f.FollowerID })
}

func (s *followingService) CreateMutualFollowing(ctx context.Context, userA, userB int64) error {
	err := s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		if err := ensureFollowEdge(ctx, tx, userA, userB); err != nil {
			return err
		}
		if err := ensureFollowEdge(ctx, tx, userB, userA); err != nil {
			return err
		}
		// is_friend 在此乐观置位，不回验两行邀请是否均已 FRIENDS
		return tx.Follows.SetFriendFlagPair(ctx, userA, userB, true)
	})
	if err != nil {
		return err
	}

	s.dispatcher.Notify(ctx, model.FanoutKindUserFollowing, userA, userB)
	s.dispatcher.Notify(ctx, model.FanoutKindUserFollowing, userB, userA)
	return nil
}

// ensureFollowEdge 缺失方向才建边并计数，已存在的方向保持原样
func ensureFollowEdge(ctx context.Context, tx *repository.Store, followerID, followedID int64) error {
	inserted, err := tx.Follows.CreateIfAbsent(ctx, repository.NewFollow(followerID, followedID))
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}
	if err := tx.Counters.AddFollowings(ctx, followerID, 1); err != nil {
		return err
	}
	return tx.Counters.AddFollowers(ctx, followedID, 1)
}

func (s *followingService) ClearFriendFlag(ctx context.Context, userA, userB int64) error {
	return s.store.Follows.SetFriendFlagPair(ctx, userA, userB, false)
}

func (s *followingService) hydrate(ctx context.Context, follows []*model.Follow, next string, counterpart func(*model.Follow) int64) (*FollowPage, error) {
	ids := make([]int64, len(follows))
	for i, f := range follows {
		ids[i] = counterpart(f)
	}
	snaps, err := loadUserSnapshots(ctx, s.store, s.snapshots, ids)
	if err != nil {
		return nil, err
	}

	items := make([]*FollowListItem, 0, len(follows))
	for _, f := range follows {
		snap, ok := snaps[counterpart(f)]
		if !ok {
			continue
		}
		items = append(items, &FollowListItem{User: snap, IsFriend: f.IsFriend, CreatedAt: f.CreatedAt})
	}
	return &FollowPage{Items: items, NextCursor: next}, nil
}
