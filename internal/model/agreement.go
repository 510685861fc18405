package model

import (
	"time"
)

// Agreement 用户对某一版本协议的授权，同一用户同一版本只有一条
type Agreement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_agreement_user_version,priority:1;comment:用户" json:"user_id"`
	Version   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_agreement_user_version,priority:2;comment:版本" json:"version"`
	IsAgree   bool      `gorm:"not null;comment:是否授权" json:"is_agree"`
	CreatedAt time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

func (Agreement) TableName() string { return "agreement" }
