package repository

import (
	"context"
)

// CounterStore 关注计数读写。默认实现直接改 users 行（与边写入同事务）；
// 热点用户写竞争成为瓶颈时可切换分片实现
type CounterStore interface {
	AddFollowers(ctx context.Context, userID int64, delta int) error
	AddFollowings(ctx context.Context, userID int64, delta int) error
	// Totals 返回当前关注者 / 关注中总数
	Totals(ctx context.Context, userID int64) (followers, followings int, err error)
}

type singleCounterStore struct {
	users UserRepository
}

// NewSingleCounterStore users 表单行计数
func NewSingleCounterStore(users UserRepository) CounterStore {
	return &singleCounterStore{users: users}
}

func (s *singleCounterStore) AddFollowers(ctx context.Context, userID int64, delta int) error {
	return s.users.AddFollowers(ctx, userID, delta)
}

func (s *singleCounterStore) AddFollowings(ctx context.Context, userID int64, delta int) error {
	return s.users.AddFollowings(ctx, userID, delta)
}

func (s *singleCounterStore) Totals(ctx context.Context, userID int64) (int, int, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	if u == nil {
		return 0, 0, nil
	}
	return u.NumberOfFollowers, u.NumberOfFollowings, nil
}
