package service

import (
	"context"
	"fmt"
	"math/rand"

	"golang.org/x/crypto/bcrypt"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
)

// DataGenService 造数工具：压测与演示环境使用，不对外暴露
type DataGenService struct {
	store      *repository.Store
	following  FollowingService
	dispatcher Dispatcher
}

func NewDataGenService(store *repository.Store, following FollowingService, dispatcher Dispatcher) *DataGenService {
	return &DataGenService{store: store, following: following, dispatcher: dispatcher}
}

// CreateFakeUsers 批量生成用户，密码统一 bcrypt 哈希
func (s *DataGenService) CreateFakeUsers(ctx context.Context, count int, prefix string) ([]*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, count)
	for i := 0; i < count; i++ {
		u := &model.User{
			Username:     fmt.Sprintf("%s_%d", prefix, i),
			Email:        fmt.Sprintf("%s_%d@example.com", prefix, i),
			PasswordHash: string(hash),
			About:        "generated account",
			Latitude:     -90 + rand.Float64()*180,
			Longitude:    -180 + rand.Float64()*360,
		}
		if err := s.store.Users.Create(ctx, u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// CreateFakeFriendship 直接落两行 FRIENDS 邀请并补齐双向关注
func (s *DataGenService) CreateFakeFriendship(ctx context.Context, user1ID, user2ID int64) error {
	existing, err := s.store.Invitations.FindPair(ctx, user1ID, user2ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyExists
	}

	err = s.store.RunAtomic(ctx, func(tx *repository.Store) error {
		if err := tx.Invitations.Create(ctx,
			repository.NewInvitation(user1ID, user2ID, model.InvitationStatusFriends)); err != nil {
			return err
		}
		return tx.Invitations.Create(ctx,
			repository.NewInvitation(user2ID, user1ID, model.InvitationStatusFriends))
	})
	if err != nil {
		return err
	}

	if err := s.following.CreateMutualFollowing(ctx, user1ID, user2ID); err != nil {
		return err
	}
	s.dispatcher.IndexSignal(ctx, model.FanoutKindFriend, user1ID, user2ID)
	s.dispatcher.IndexSignal(ctx, model.FanoutKindFriend, user2ID, user1ID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindFriend, user1ID, user2ID)
	s.dispatcher.PromoteSignal(ctx, model.FanoutKindFriend, user2ID, user1ID)
	return nil
}
