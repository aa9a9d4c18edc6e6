package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/soma-lab/relation-core/internal/model"
)

type UserRepository interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	GetAll(ctx context.Context, ids []int64) ([]*model.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, user *model.User) error
	SaveAll(ctx context.Context, users ...*model.User) error
	// AddFollowers / AddFollowings 以 SQL 表达式原地增减计数，负向钳制为 0
	AddFollowers(ctx context.Context, id int64, delta int) error
	AddFollowings(ctx context.Context, id int64, delta int) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetAll(ctx context.Context, ids []int64) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.NormalizeEmail()
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) SaveAll(ctx context.Context, users ...*model.User) error {
	for _, u := range users {
		u.NormalizeEmail()
		if err := r.db.WithContext(ctx).Save(u).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) AddFollowers(ctx context.Context, id int64, delta int) error {
	return r.addCounter(ctx, id, "number_of_followers", delta)
}

func (r *userRepository) AddFollowings(ctx context.Context, id int64, delta int) error {
	return r.addCounter(ctx, id, "number_of_followings", delta)
}

func (r *userRepository) addCounter(ctx context.Context, id int64, column string, delta int) error {
	expr := gorm.Expr(
		"CASE WHEN "+column+" + ? < 0 THEN 0 ELSE "+column+" + ? END",
		delta, delta,
	)
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn(column, expr).Error
}
