package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
	"github.com/soma-lab/relation-core/pkg/logger"
)

// FanoutWorker 轮询 fanout_tasks 并投递到对应网关。
// 投递失败归还任务重试（至少一次），超过最大尝试次数后放弃并告警。
type FanoutWorker struct {
	tasks         repository.TaskRepository
	notifications NotificationGateway
	searchSync    SearchSyncGateway
	workers       int
	claimLimit    int
	pollInterval  time.Duration
	maxAttempts   int
}

func NewFanoutWorker(tasks repository.TaskRepository, notifications NotificationGateway, searchSync SearchSyncGateway, workers, claimLimit int, pollInterval time.Duration, maxAttempts int) *FanoutWorker {
	if workers <= 0 {
		workers = 4
	}
	if claimLimit <= 0 {
		claimLimit = 64
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &FanoutWorker{
		tasks:         tasks,
		notifications: notifications,
		searchSync:    searchSync,
		workers:       workers,
		claimLimit:    claimLimit,
		pollInterval:  pollInterval,
		maxAttempts:   maxAttempts,
	}
}

// Start 启动若干 worker 轮询处理任务；返回停止函数
func (w *FanoutWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < w.workers; i++ {
		go w.loop(stop)
	}
	return func(ctx context.Context) error { close(stop); return nil }
}

func (w *FanoutWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := w.ProcessOnce(context.Background()); err != nil {
				logger.Error("fanout claim failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce 领取一批任务并逐条投递
func (w *FanoutWorker) ProcessOnce(ctx context.Context) error {
	batch, err := w.tasks.ClaimBatch(ctx, w.claimLimit)
	if err != nil {
		return err
	}
	for _, task := range batch {
		if err := w.deliver(ctx, task); err != nil {
			if task.Attempts+1 >= w.maxAttempts {
				logger.Error("fanout task exhausted retries, dropping",
					zap.String("id", task.ID),
					zap.String("channel", task.Channel),
					zap.String("kind", task.Kind),
					zap.Int("attempts", task.Attempts+1),
					zap.Error(err))
				_ = w.tasks.MarkDone(ctx, task.ID)
				continue
			}
			logger.Warn("fanout delivery failed, will retry",
				zap.String("id", task.ID),
				zap.String("channel", task.Channel),
				zap.Error(err))
			_ = w.tasks.Retry(ctx, task.ID)
			continue
		}
		_ = w.tasks.MarkDone(ctx, task.ID)
	}
	return nil
}

func (w *FanoutWorker) deliver(ctx context.Context, task *model.FanoutTask) error {
	switch task.Channel {
	case model.FanoutChannelNotification:
		return w.notifications.Enqueue(ctx, task.Kind, task.ActorID, task.SubjectID)
	case model.FanoutChannelSearch:
		return w.searchSync.EnqueueUserAction(ctx, task.ActorID, task.SubjectID, task.Kind)
	case model.FanoutChannelPromote:
		return w.searchSync.EnqueuePromotingAction(ctx, task.Kind, task.ActorID, task.SubjectID)
	default:
		logger.Warn("unknown fanout channel, dropping", zap.String("channel", task.Channel))
		return nil
	}
}
