package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soma-lab/relation-core/internal/model"
)

// ErrCorruptedInvitations 同一有向对存在多行邀请：致命一致性错误，
// 只上报不自动修复（修复属运维操作）
var ErrCorruptedInvitations = errors.New("more than one invitation row for ordered pair")

type InvitationRepository interface {
	// FindPair 强一致读取一个有向对的邀请行；行数 >1 返回 ErrCorruptedInvitations
	FindPair(ctx context.Context, senderID, targetID int64) (*model.FriendshipInvitation, error)
	CreateIfAbsent(ctx context.Context, inv *model.FriendshipInvitation) (bool, error)
	Create(ctx context.Context, inv *model.FriendshipInvitation) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, ids ...string) error
	// ListForUser 我的好友页：指向我的全部邀请，待处理（SENT）在前
	ListForUser(ctx context.Context, targetID int64, page PageRequest) ([]*model.FriendshipInvitation, string, error)
	// ListConfirmed 他人好友页：仅已确认的好友
	ListConfirmed(ctx context.Context, targetID int64, page PageRequest) ([]*model.FriendshipInvitation, string, error)
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

// NewInvitation 构造邀请记录
func NewInvitation(senderID, targetID int64, status string) *model.FriendshipInvitation {
	return &model.FriendshipInvitation{
		ID:       uuid.New().String(),
		SenderID: senderID,
		TargetID: targetID,
		Status:   status,
	}
}

func (r *invitationRepository) FindPair(ctx context.Context, senderID, targetID int64) (*model.FriendshipInvitation, error) {
	var rows []*model.FriendshipInvitation
	if err := r.db.WithContext(ctx).
		Where("sender_id = ? AND target_id = ?", senderID, targetID).
		Limit(2).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, ErrCorruptedInvitations
	}
}

func (r *invitationRepository) CreateIfAbsent(ctx context.Context, inv *model.FriendshipInvitation) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(inv)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *model.FriendshipInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.FriendshipInvitation{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}

func (r *invitationRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.FriendshipInvitation{}).Error
}

// ListForUser 按 status DESC（SENT 在 FRIENDS 前）、creation 升序分页，
// 游标带上 status 段保证跨状态边界可续读
func (r *invitationRepository) ListForUser(ctx context.Context, targetID int64, page PageRequest) ([]*model.FriendshipInvitation, string, error) {
	limit := page.ClampedLimit()
	q := r.db.WithContext(ctx).
		Model(&model.FriendshipInvitation{}).
		Where("target_id = ?", targetID)

	if page.Cursor != "" {
		k, err := decodeCursor(page.Cursor)
		if err != nil {
			return nil, "", err
		}
		q = q.Where(
			"(status < ?) OR (status = ? AND created_at > ?) OR (status = ? AND created_at = ? AND id > ?)",
			k.status, k.status, k.ts, k.status, k.ts, k.id,
		)
	}

	var rows []*model.FriendshipInvitation
	if err := q.Order("status DESC, created_at ASC, id ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = encodeCursor(cursorKey{status: last.Status, ts: last.CreatedAt, id: last.ID})
	}
	return rows, next, nil
}

func (r *invitationRepository) ListConfirmed(ctx context.Context, targetID int64, page PageRequest) ([]*model.FriendshipInvitation, string, error) {
	q := r.db.WithContext(ctx).
		Model(&model.FriendshipInvitation{}).
		Where("target_id = ? AND status = ?", targetID, model.InvitationStatusFriends)
	return cursorPage[model.FriendshipInvitation](q, page, invitationKey)
}

func invitationKey(inv *model.FriendshipInvitation) cursorKey {
	return cursorKey{ts: inv.CreatedAt, id: inv.ID}
}
