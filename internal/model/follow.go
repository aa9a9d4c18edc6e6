package model

import (
    "time"
)

// Follow 关注关系（A 关注 B）
type Follow struct {
    ID         string `gorm:"primaryKey;type:varchar(36)"`
    FollowerID int64  `gorm:"index:idx_follow_pair,unique;index:idx_follow_follower_created;not null"`
    FollowedID int64  `gorm:"index:idx_follow_pair,unique;index:idx_follow_followed_created;not null"`
    // 复合唯一键，避免重复关注
    // idx_follow_pair = (follower_id, followed_id)
    // IsFriend 仅为查询冗余：好友关系确认后双向置 true，解除好友只回置 false 不删边
    IsFriend  bool      `gorm:"not null;default:false"`
    CreatedAt time.Time `gorm:"index:idx_follow_follower_created;index:idx_follow_followed_created"`
    UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
