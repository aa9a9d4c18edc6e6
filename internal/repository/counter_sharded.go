package repository

import (
	"context"
	"fmt"
	"math/rand"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soma-lab/relation-core/internal/model"
)

const (
	// DefaultShardCount 每用户计数分片数
	DefaultShardCount = 8
)

// ShardedCounterStore 分片计数：写入随机分片行，读取对分片求和再叠加 users 行基值。
// Reconcile 周期性把分片增量折叠回 users 行并清零分片。
type ShardedCounterStore struct {
	db         *gorm.DB
	users      UserRepository
	shardCount int
}

func NewShardedCounterStore(db *gorm.DB, users UserRepository, shardCount int) *ShardedCounterStore {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	return &ShardedCounterStore{db: db, users: users, shardCount: shardCount}
}

func shardKey(userID int64, idx int) string {
	return fmt.Sprintf("%d:%d", userID, idx)
}

func (s *ShardedCounterStore) AddFollowers(ctx context.Context, userID int64, delta int) error {
	return s.add(ctx, userID, "followers", delta)
}

func (s *ShardedCounterStore) AddFollowings(ctx context.Context, userID int64, delta int) error {
	return s.add(ctx, userID, "followings", delta)
}

func (s *ShardedCounterStore) add(ctx context.Context, userID int64, column string, delta int) error {
	idx := rand.Intn(s.shardCount)
	shard := &model.UserCounterShard{
		Key:        shardKey(userID, idx),
		UserID:     userID,
		ShardIndex: idx,
	}
	switch column {
	case "followers":
		shard.Followers = delta
	case "followings":
		shard.Followings = delta
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				column: gorm.Expr("user_counter_shards."+column+" + ?", delta),
			}),
		}).
		Create(shard).Error
}

func (s *ShardedCounterStore) Totals(ctx context.Context, userID int64) (int, int, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	var sums struct {
		Followers  int
		Followings int
	}
	if err := s.db.WithContext(ctx).
		Model(&model.UserCounterShard{}).
		Select("COALESCE(SUM(followers),0) AS followers, COALESCE(SUM(followings),0) AS followings").
		Where("user_id = ?", userID).
		Scan(&sums).Error; err != nil {
		return 0, 0, err
	}
	followers, followings := sums.Followers, sums.Followings
	if u != nil {
		followers += u.NumberOfFollowers
		followings += u.NumberOfFollowings
	}
	if followers < 0 {
		followers = 0
	}
	if followings < 0 {
		followings = 0
	}
	return followers, followings, nil
}

// Reconcile 将某用户的分片增量折叠进 users 行并清零分片
func (s *ShardedCounterStore) Reconcile(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shards []*model.UserCounterShard
		if err := tx.Where("user_id = ?", userID).Find(&shards).Error; err != nil {
			return err
		}
		if len(shards) == 0 {
			return nil
		}
		var followers, followings int
		for _, sh := range shards {
			followers += sh.Followers
			followings += sh.Followings
		}
		if err := tx.Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"number_of_followers":  gorm.Expr("CASE WHEN number_of_followers + ? < 0 THEN 0 ELSE number_of_followers + ? END", followers, followers),
				"number_of_followings": gorm.Expr("CASE WHEN number_of_followings + ? < 0 THEN 0 ELSE number_of_followings + ? END", followings, followings),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.UserCounterShard{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"followers": 0, "followings": 0}).Error
	})
}
