package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soma-lab/relation-core/internal/model"
)

type FollowRepository interface {
	Find(ctx context.Context, followerID, followedID int64) (*model.Follow, error)
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	// CreateIfAbsent 条件插入：复合唯一键冲突时不报错，返回是否真正插入。
	// 唯一性在事务内由索引保证，外层存在性检查只是快速失败。
	CreateIfAbsent(ctx context.Context, follow *model.Follow) (bool, error)
	Delete(ctx context.Context, followerID, followedID int64) (bool, error)
	Save(ctx context.Context, follow *model.Follow) error
	// SetFriendFlagPair 双向更新 is_friend，不触碰计数也不删边
	SetFriendFlagPair(ctx context.Context, userA, userB int64, isFriend bool) error
	ListFollowing(ctx context.Context, followerID int64, page PageRequest) ([]*model.Follow, string, error)
	ListFollowers(ctx context.Context, followedID int64, page PageRequest) ([]*model.Follow, string, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

// NewFollow 构造关注边记录
func NewFollow(followerID, followedID int64) *model.Follow {
	return &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FollowedID: followedID}
}

func (r *followRepository) Find(ctx context.Context, followerID, followedID int64) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) CreateIfAbsent(ctx context.Context, follow *model.Follow) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followed_id"}},
			DoNothing: true,
		}).
		Create(follow)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Save(ctx context.Context, follow *model.Follow) error {
	return r.db.WithContext(ctx).Save(follow).Error
}

func (r *followRepository) SetFriendFlagPair(ctx context.Context, userA, userB int64, isFriend bool) error {
	return r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("(follower_id = ? AND followed_id = ?) OR (follower_id = ? AND followed_id = ?)",
			userA, userB, userB, userA).
		UpdateColumn("is_friend", isFriend).Error
}

func (r *followRepository) ListFollowing(ctx context.Context, followerID int64, page PageRequest) ([]*model.Follow, string, error) {
	q := r.db.WithContext(ctx).Model(&model.Follow{}).Where("follower_id = ?", followerID)
	return cursorPage[model.Follow](q, page, followKey)
}

func (r *followRepository) ListFollowers(ctx context.Context, followedID int64, page PageRequest) ([]*model.Follow, string, error) {
	q := r.db.WithContext(ctx).Model(&model.Follow{}).Where("followed_id = ?", followedID)
	return cursorPage[model.Follow](q, page, followKey)
}

func followKey(f *model.Follow) cursorKey {
	return cursorKey{ts: f.CreatedAt, id: f.ID}
}
