package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/soma-lab/relation-core/internal/model"
)

type TaskRepository interface {
	Enqueue(ctx context.Context, task *model.FanoutTask) error
	// ClaimBatch 领取一批 pending 任务并标记 processing。
	// Postgres 下使用 SKIP LOCKED 支持多 worker 竞争，其余方言退化为普通读取。
	ClaimBatch(ctx context.Context, limit int) ([]*model.FanoutTask, error)
	MarkDone(ctx context.Context, id string) error
	// Retry 归还任务并累加尝试次数，等待下一轮领取
	Retry(ctx context.Context, id string) error
	CountPending(ctx context.Context) (int64, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository { return &taskRepository{db: db} }

// NewFanoutTask 构造扇出任务
func NewFanoutTask(channel, kind string, actorID, subjectID int64) *model.FanoutTask {
	return &model.FanoutTask{
		ID:        uuid.New().String(),
		Channel:   channel,
		Kind:      kind,
		ActorID:   actorID,
		SubjectID: subjectID,
		Status:    model.FanoutStatusPending,
	}
}

func (r *taskRepository) Enqueue(ctx context.Context, task *model.FanoutTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) ClaimBatch(ctx context.Context, limit int) ([]*model.FanoutTask, error) {
	var batch []*model.FanoutTask
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Raw(`
				SELECT * FROM fanout_tasks
				WHERE status = 'pending'
				ORDER BY created_at
				LIMIT ?
				FOR UPDATE SKIP LOCKED
			`, limit).Scan(&batch).Error; err != nil {
				return err
			}
		} else if err := tx.Where("status = ?", model.FanoutStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, t := range batch {
			ids[i] = t.ID
		}
		return tx.Model(&model.FanoutTask{}).
			Where("id IN ?", ids).
			UpdateColumn("status", model.FanoutStatusProcessing).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *taskRepository) MarkDone(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.FanoutTask{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.FanoutStatusDone, "processed_at": now}).Error
}

func (r *taskRepository) Retry(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.FanoutTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   model.FanoutStatusPending,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *taskRepository) CountPending(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.FanoutTask{}).
		Where("status IN ?", []string{model.FanoutStatusPending, model.FanoutStatusProcessing}).
		Count(&cnt).Error
	return cnt, err
}
