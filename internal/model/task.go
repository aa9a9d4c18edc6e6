package model

import "time"

// 扇出通道
const (
    FanoutChannelNotification = "notification"
    FanoutChannelSearch       = "search"
    FanoutChannelPromote      = "promote"
)

// 扇出任务状态
const (
    FanoutStatusPending    = "pending"
    FanoutStatusProcessing = "processing"
    FanoutStatusDone       = "done"
)

// 扇出事件类型
const (
    FanoutKindFollow            = "FOLLOW"
    FanoutKindUnfollow          = "UNFOLLOW"
    FanoutKindFriend            = "FRIEND"
    FanoutKindUnfriend          = "UNFRIEND"
    FanoutKindConnectionRequest = "CONNECTION_REQUEST"
    FanoutKindUserFollowing     = "USER_FOLLOWING"
)

// FanoutTask 扇出任务盒：图变更提交后写入，worker 轮询投递（至少一次）
type FanoutTask struct {
    ID          string `gorm:"primaryKey;type:varchar(36)"`
    Channel     string `gorm:"type:varchar(16);index:idx_fanout_status;not null"`
    Kind        string `gorm:"type:varchar(32);not null"`
    ActorID     int64  `gorm:"not null"`
    SubjectID   int64  `gorm:"not null"`
    Status      string `gorm:"type:varchar(16);index:idx_fanout_status;not null"`
    Attempts    int    `gorm:"not null;default:0"`
    CreatedAt   time.Time `gorm:"index"`
    ProcessedAt *time.Time
}

func (FanoutTask) TableName() string { return "fanout_tasks" }
