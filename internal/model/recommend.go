package model

import (
	"time"
)

// RecommendDateLayout 推荐日期格式
const RecommendDateLayout = "2006-01-02"

// Recommend 每日推荐，每天最多一条
type Recommend struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;index;comment:发布人" json:"user_id"`
	Date      string       `gorm:"type:varchar(10);not null;uniqueIndex;comment:日期" json:"date"`
	Status    RecordStatus `gorm:"type:int;not null;default:0;index;comment:记录状态" json:"-"`
	CreatedAt time.Time    `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt time.Time    `gorm:"comment:更新时间" json:"updated_at"`
}

func (Recommend) TableName() string { return "recommend" }

// RecommendPost 推荐中的帖子
type RecommendPost struct {
	RecommendID uint `gorm:"primaryKey;autoIncrement:false"`
	PostID      uint `gorm:"primaryKey;autoIncrement:false;index"`
	Sort        int  `gorm:"not null;default:0"`
}

func (RecommendPost) TableName() string { return "recommend_post" }
