package model

import (
	"time"
)

// Follow 关注关系，FromUser 关注 ToUser
type Follow struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	FromUserID uint         `gorm:"not null;uniqueIndex:uk_follow_pair,priority:1;comment:关注人" json:"from_user_id"`
	ToUserID   uint         `gorm:"not null;uniqueIndex:uk_follow_pair,priority:2;index;comment:被关注人" json:"to_user_id"`
	Status     RecordStatus `gorm:"type:int;not null;default:0;comment:记录状态" json:"-"`
	CreatedAt  time.Time    `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"comment:更新时间" json:"updated_at"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

func (Follow) TableName() string { return "follow" }
