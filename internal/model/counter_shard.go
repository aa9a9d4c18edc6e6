package model

import "time"

// UserCounterShard 用户计数分片（热点用户写扩散的可选方案）
// key = "<user_id>:<shard_index>"，读取时对分片求和
type UserCounterShard struct {
    Key        string `gorm:"primaryKey;type:varchar(64)"`
    UserID     int64  `gorm:"index:idx_counter_shard_user;not null"`
    ShardIndex int    `gorm:"not null"`
    Followers  int    `gorm:"not null;default:0"`
    Followings int    `gorm:"not null;default:0"`
    UpdatedAt  time.Time
}

func (UserCounterShard) TableName() string { return "user_counter_shards" }
