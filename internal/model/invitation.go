package model

import "time"

// 好友邀请状态
const (
    InvitationStatusSent    = "SENT"
    InvitationStatusFriends = "FRIENDS"
)

// FriendshipInvitation 好友邀请（有向）。一对已确认的好友由
// (A→B, FRIENDS) 与 (B→A, FRIENDS) 两行共同表示，确认后成对增删。
type FriendshipInvitation struct {
    ID       string `gorm:"primaryKey;type:varchar(36)"`
    SenderID int64  `gorm:"index:idx_invitation_pair,unique;not null"`
    TargetID int64  `gorm:"index:idx_invitation_pair,unique;index:idx_invitation_target;not null"`
    // idx_invitation_pair = (sender_id, target_id)，每个有向对至多一行
    Status    string    `gorm:"type:varchar(16);not null"`
    CreatedAt time.Time `gorm:"index"`
    UpdatedAt time.Time
}

func (FriendshipInvitation) TableName() string { return "friendship_invitations" }
