package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
	"github.com/soma-lab/relation-core/pkg/logger"
)

// NotificationGateway 推送侧协作方：至少一次投递，异步
type NotificationGateway interface {
	Enqueue(ctx context.Context, kind string, actorID, subjectID int64) error
}

// SearchSyncGateway 搜索 / 推广侧协作方
type SearchSyncGateway interface {
	EnqueueUserAction(ctx context.Context, actorID, subjectID int64, kind string) error
	EnqueuePromotingAction(ctx context.Context, kind string, actorID, subjectID int64) error
}

// Dispatcher 图变更提交后的扇出入口。调用发生在事务提交之后，
// 任何入队失败只记日志，绝不回滚已提交的图变更。
type Dispatcher interface {
	Notify(ctx context.Context, kind string, actorID, subjectID int64)
	IndexSignal(ctx context.Context, kind string, actorID, subjectID int64)
	PromoteSignal(ctx context.Context, kind string, actorID, subjectID int64)
}

// QueueDispatcher 把扇出事件经有界缓冲落入 fanout_tasks 表，
// 由 FanoutWorker 轮询投递。缓冲写满时丢弃并告警
type QueueDispatcher struct {
	tasks repository.TaskRepository
	ch    chan *model.FanoutTask
}

func NewQueueDispatcher(tasks repository.TaskRepository, queueSize int) *QueueDispatcher {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &QueueDispatcher{tasks: tasks, ch: make(chan *model.FanoutTask, queueSize)}
}

// Start 启动落库协程；返回停止函数，等待队列自然排空一小段时间
func (d *QueueDispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case task := <-d.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					if err := d.tasks.Enqueue(ctx, task); err != nil {
						logger.Error("enqueue fanout task failed",
							zap.String("channel", task.Channel),
							zap.String("kind", task.Kind),
							zap.Error(err))
					}
					cancel()
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(d.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (d *QueueDispatcher) Notify(ctx context.Context, kind string, actorID, subjectID int64) {
	d.enqueue(model.FanoutChannelNotification, kind, actorID, subjectID)
}

func (d *QueueDispatcher) IndexSignal(ctx context.Context, kind string, actorID, subjectID int64) {
	d.enqueue(model.FanoutChannelSearch, kind, actorID, subjectID)
}

func (d *QueueDispatcher) PromoteSignal(ctx context.Context, kind string, actorID, subjectID int64) {
	d.enqueue(model.FanoutChannelPromote, kind, actorID, subjectID)
}

func (d *QueueDispatcher) enqueue(channel, kind string, actorID, subjectID int64) {
	task := repository.NewFanoutTask(channel, kind, actorID, subjectID)
	select {
	case d.ch <- task:
	default:
		logger.Warn("fanout queue full, drop task",
			zap.String("channel", channel),
			zap.String("kind", kind),
			zap.Int64("actor", actorID),
			zap.Int64("subject", subjectID))
	}
}

// QueueLen 当前缓冲长度（采样值）
func (d *QueueDispatcher) QueueLen() int { return len(d.ch) }
