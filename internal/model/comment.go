package model

import (
	"time"
)

// Comment 评论，ParentID 指向同一帖子下的父评论
type Comment struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index;comment:评论人" json:"user_id"`
	PostID    uint         `gorm:"not null;index;comment:帖子" json:"post_id"`
	ParentID  *uint        `gorm:"index;comment:父评论" json:"parent_id"`
	Text      string       `gorm:"type:text;not null;comment:评论内容" json:"text"`
	Status    RecordStatus `gorm:"type:int;not null;default:0;index;comment:记录状态" json:"-"`
	CreatedAt time.Time    `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time    `gorm:"comment:更新时间" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Comment) TableName() string { return "comment" }

// CommentLike 评论点赞
type CommentLike struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

func (CommentLike) TableName() string { return "comment_like" }
