package model

import (
    "strings"
    "time"
)

// User 用户主档（身份子系统负责维护，本服务只读取并在事务内增减计数）
type User struct {
    ID           int64  `gorm:"primaryKey;autoIncrement"`
    Username     string `gorm:"type:varchar(64);not null"`
    Email        string `gorm:"type:varchar(128);not null"`
    EmailIdx     string `gorm:"type:varchar(128);index:idx_user_email_idx"`
    PasswordHash string `gorm:"type:varchar(128)"`
    About        string `gorm:"type:text"`
    LocationName string `gorm:"type:varchar(128)"`
    Latitude     float64
    Longitude    float64
    // 冗余计数，随边写入同事务维护，递减时钳制为 0
    NumberOfFollowers  int `gorm:"not null;default:0"`
    NumberOfFollowings int `gorm:"not null;default:0"`
    NumberOfItems      int `gorm:"not null;default:0"`
    CreatedAt          time.Time
    UpdatedAt          time.Time
}

func (User) TableName() string { return "users" }

// NormalizeEmail 写入前同步小写索引列
func (u *User) NormalizeEmail() {
    u.EmailIdx = strings.ToLower(strings.TrimSpace(u.Email))
}
