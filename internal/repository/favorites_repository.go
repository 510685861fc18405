package repository

import (
	"context"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoritesRepository 收藏夹仓储
type FavoritesRepository struct {
	db *gorm.DB
}

// NewFavoritesRepository 创建FavoritesRepository实例
func NewFavoritesRepository(db *gorm.DB) *FavoritesRepository {
	return &FavoritesRepository{db: db}
}

// Create 创建收藏夹
func (r *FavoritesRepository) Create(ctx context.Context, f *model.Favorites) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(f).Error, "create favorites")
}

// GetByID 获取未删除的收藏夹
func (r *FavoritesRepository) GetByID(ctx context.Context, id uint) (*model.Favorites, error) {
	var f model.Favorites
	err := r.db.WithContext(ctx).Where("id = ? AND status = ?", id, model.RecordActive).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrFavoritesNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get favorites %d", id)
	}
	return &f, nil
}

// List 某用户的收藏夹，onlyPublic 为 true 时只返回公开的
func (r *FavoritesRepository) List(ctx context.Context, ownerID uint, onlyPublic bool, page Page) ([]*model.Favorites, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Favorites{}).
		Where("user_id = ? AND status = ?", ownerID, model.RecordActive)
	if onlyPublic {
		base = base.Where("category = ?", model.FavoritesPublic)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count favorites")
	}
	var list []*model.Favorites
	if err := page.Apply(base).Order("id DESC").Find(&list).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list favorites")
	}
	return list, total, nil
}

// Update 更新收藏夹字段
func (r *FavoritesRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Favorites{}).Where("id = ?", id).Updates(fields).Error
	return errors.Wrapf(err, "update favorites %d", id)
}

// SoftDelete 软删除收藏夹
func (r *FavoritesRepository) SoftDelete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&model.Favorites{}).Where("id = ?", id).
		Update("status", model.RecordAbandoned).Error
	return errors.Wrapf(err, "delete favorites %d", id)
}

// AddPost 收藏帖子，重复收藏无副作用
func (r *FavoritesRepository) AddPost(ctx context.Context, favoritesID, postID uint) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.FavoritesPost{FavoritesID: favoritesID, PostID: postID}).Error
	return errors.Wrapf(err, "collect post %d", postID)
}

// RemovePost 取消收藏
func (r *FavoritesRepository) RemovePost(ctx context.Context, favoritesID, postID uint) error {
	err := r.db.WithContext(ctx).Where("favorites_id = ? AND post_id = ?", favoritesID, postID).
		Delete(&model.FavoritesPost{}).Error
	return errors.Wrapf(err, "uncollect post %d", postID)
}

// PostIDs 收藏夹中的帖子ID，最近收藏的在前
func (r *FavoritesRepository) PostIDs(ctx context.Context, favoritesID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.FavoritesPost{}).
		Where("favorites_id = ?", favoritesID).
		Order("created_at DESC").
		Pluck("post_id", &ids).Error
	return ids, errors.Wrapf(err, "list posts of favorites %d", favoritesID)
}

// PostCounts 批量统计收藏夹中的帖子数
func (r *FavoritesRepository) PostCounts(ctx context.Context, favoritesIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(favoritesIDs))
	if len(favoritesIDs) == 0 {
		return out, nil
	}
	type row struct {
		FavoritesID uint
		N           int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.FavoritesPost{}).
		Select("favorites_id, COUNT(*) AS n").
		Where("favorites_id IN ?", favoritesIDs).
		Group("favorites_id").Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count favorites posts")
	}
	for _, row := range rows {
		out[row.FavoritesID] = row.N
	}
	return out, nil
}
