package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合各仓储并承载事务边界。事务内通过 RunAtomic 传入的
// 派生 Store 访问仓储，写入仅在提交后可见，回调返回错误即整体回滚。
type Store struct {
	db          *gorm.DB
	shardCount  int // 0 表示单行计数
	Users       UserRepository
	Follows     FollowRepository
	Invitations InvitationRepository
	Tasks       TaskRepository
	Counters    CounterStore
}

func NewStore(db *gorm.DB) *Store {
	return newStore(db, 0)
}

// NewStoreWithShardedCounters 热点用户场景下启用分片计数
func NewStoreWithShardedCounters(db *gorm.DB, shardCount int) *Store {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	return newStore(db, shardCount)
}

func newStore(db *gorm.DB, shardCount int) *Store {
	users := NewUserRepository(db)
	s := &Store{
		db:          db,
		shardCount:  shardCount,
		Users:       users,
		Follows:     NewFollowRepository(db),
		Invitations: NewInvitationRepository(db),
		Tasks:       NewTaskRepository(db),
	}
	if shardCount > 0 {
		s.Counters = NewShardedCounterStore(db, users, shardCount)
	} else {
		s.Counters = NewSingleCounterStore(users)
	}
	return s
}

// DB 返回底层句柄（迁移、基准等场景使用）
func (s *Store) DB() *gorm.DB { return s.db }

// RunAtomic 在单个事务内执行 fn，fn 内通过派生 Store 读写
func (s *Store) RunAtomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, s.shardCount))
	})
}
