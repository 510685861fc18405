package model

import (
	"time"
)

// Visibility 帖子可见范围
type Visibility int

const (
	VisibilityPublic      Visibility = 0 // 公开
	VisibilityFriendsOnly Visibility = 1 // 好友可见
	VisibilityPrivate     Visibility = 2 // 仅我可见
)

// Valid 是否为已定义的可见范围
func (v Visibility) Valid() bool {
	return v >= VisibilityPublic && v <= VisibilityPrivate
}

// PostCategory 帖子类型
type PostCategory int

const (
	CategoryVideo PostCategory = 0
	CategoryImage PostCategory = 1
)

// Valid 是否为已定义的类型
func (c PostCategory) Valid() bool {
	return c == CategoryVideo || c == CategoryImage
}

// Post 帖子
type Post struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	UserID     uint         `gorm:"not null;index;comment:作者" json:"user_id"`
	Visibility Visibility   `gorm:"type:int;not null;default:0;index;comment:可见范围" json:"visibility"`
	Category   PostCategory `gorm:"type:int;not null;comment:类型" json:"category"`
	Title      string       `gorm:"type:varchar(100);not null;comment:标题" json:"title"`
	Content    string       `gorm:"type:text;comment:详情" json:"content"`
	VideoURL   string       `gorm:"type:varchar(255);comment:视频URL" json:"video_url"`
	Place      string       `gorm:"type:varchar(255);comment:地点名称" json:"place"`
	Longitude  *float64     `gorm:"index:idx_post_location,priority:1;comment:经度" json:"longitude"`
	Latitude   *float64     `gorm:"index:idx_post_location,priority:2;comment:纬度" json:"latitude"`
	Time       time.Time    `gorm:"comment:发布时间" json:"time"`
	Status     RecordStatus `gorm:"type:int;not null;default:0;index;comment:记录状态" json:"-"`
	CreatedAt  time.Time    `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"comment:更新时间" json:"updated_at"`

	User   *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Images []PostImage `gorm:"foreignKey:PostID" json:"images"`
}

func (Post) TableName() string { return "post" }

// PostImage 帖子图片（只保存URL）
type PostImage struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PostID uint   `gorm:"not null;index;comment:帖子" json:"-"`
	URL    string `gorm:"type:varchar(255);not null;comment:图片URL" json:"url"`
	Sort   int    `gorm:"not null;default:0;comment:排序" json:"-"`
}

func (PostImage) TableName() string { return "post_image" }

// PostLike 帖子点赞
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

func (PostLike) TableName() string { return "post_like" }
