package model

import (
	"time"
)

// FavoritesCategory 收藏夹类型
type FavoritesCategory int

const (
	FavoritesPublic  FavoritesCategory = 0
	FavoritesPrivate FavoritesCategory = 1
)

// Favorites 收藏夹
type Favorites struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index;comment:拥有者" json:"user_id"`
	Name      string            `gorm:"type:varchar(255);not null;comment:名称" json:"name"`
	CoverURL  string            `gorm:"type:varchar(255);comment:封面URL" json:"cover_url"`
	Category  FavoritesCategory `gorm:"type:int;not null;default:0;comment:类型" json:"category"`
	Status    RecordStatus      `gorm:"type:int;not null;default:0;index;comment:记录状态" json:"-"`
	CreatedAt time.Time         `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time         `gorm:"comment:更新时间" json:"updated_at"`
}

func (Favorites) TableName() string { return "favorites" }

// FavoritesPost 收藏夹中的帖子
type FavoritesPost struct {
	FavoritesID uint      `gorm:"primaryKey;autoIncrement:false"`
	PostID      uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt   time.Time
}

func (FavoritesPost) TableName() string { return "favorites_post" }
