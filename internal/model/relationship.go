package model

import (
	"time"
)

// FriendState 好友状态
type FriendState int

const (
	FriendUnrelated FriendState = 0 // 无关系
	FriendPending   FriendState = 1 // 待处理
	FriendAgree     FriendState = 2 // 已接受
	FriendReject    FriendState = 3 // 已拒绝
)

func (s FriendState) String() string {
	switch s {
	case FriendUnrelated:
		return "unrelated"
	case FriendPending:
		return "pending"
	case FriendAgree:
		return "agree"
	case FriendReject:
		return "reject"
	default:
		return "unknown"
	}
}

// Valid 是否为已定义的状态
func (s FriendState) Valid() bool {
	return s >= FriendUnrelated && s <= FriendReject
}

// Relationship 有向好友关系
// 每个有序用户对 (FromUserID, ToUserID) 只有一行，(A→B) 与 (B→A) 相互独立
// Remark 只由 FromUser 设置；IsBlock / IsPostBlock 与 State 正交
type Relationship struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	FromUserID  uint         `gorm:"not null;uniqueIndex:uk_relationship_pair,priority:1;comment:关系起始人" json:"from_user_id"`
	ToUserID    uint         `gorm:"not null;uniqueIndex:uk_relationship_pair,priority:2;index;comment:关系结束人" json:"to_user_id"`
	State       FriendState  `gorm:"type:int;not null;default:0;comment:好友状态" json:"state"`
	IsBlock     bool         `gorm:"not null;default:false;comment:黑名单" json:"is_block"`
	IsPostBlock bool         `gorm:"not null;default:false;comment:不看对方帖子" json:"is_post_block"`
	Remark      string       `gorm:"type:varchar(255);comment:备注名称" json:"remark"`
	SayHi       string       `gorm:"type:varchar(255);comment:验证消息" json:"say_hi"`
	AgreeTime   *time.Time   `gorm:"comment:成为好友时间" json:"agree_time"`
	Status      RecordStatus `gorm:"type:int;not null;default:0;index;comment:记录状态" json:"-"`
	CreatedAt   time.Time    `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"comment:更新时间" json:"updated_at"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

func (Relationship) TableName() string { return "relationship" }

// IsFriend 已接受且未拉黑
func (r *Relationship) IsFriend() bool {
	return r.State == FriendAgree && !r.IsBlock && r.Status == RecordActive
}

// Reset 复用已删除的行时恢复为初始状态
func (r *Relationship) Reset() {
	r.State = FriendUnrelated
	r.IsBlock = false
	r.IsPostBlock = false
	r.Remark = ""
	r.SayHi = ""
	r.AgreeTime = nil
	r.Status = RecordActive
}
