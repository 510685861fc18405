package model

import (
	"time"
)

// Gender 性别
type Gender int

const (
	GenderFemale Gender = 0
	GenderMale   Gender = 1
	GenderSecret Gender = 2
)

// User 用户模型
// 索引与唯一约束：用户名唯一、手机号唯一
// 说明：密码仅存储哈希（PasswordHash），不存储明文
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex;comment:用户名" json:"username"`
	Tel          string    `gorm:"type:varchar(20);not null;uniqueIndex;comment:手机号码" json:"-"`
	PasswordHash string    `gorm:"type:varchar(255);not null;comment:密码哈希" json:"-"`
	Nickname     string    `gorm:"type:varchar(30);comment:昵称" json:"nickname"`
	Avatar       string    `gorm:"type:varchar(255);comment:头像URL" json:"avatar"`
	Gender       Gender    `gorm:"type:int;not null;default:2;comment:性别" json:"gender"`
	Location     string    `gorm:"type:varchar(255);comment:所在地" json:"location"`
	Introduction string    `gorm:"type:text;comment:个人简介" json:"introduction"`
	CreatedAt    time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

// TableName 指定表名（因全局配置使用单数表名，这里与结构体名一致为 user）
func (User) TableName() string { return "user" }

// DisplayName 展示名：有昵称用昵称，否则用用户名
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
