package repository

import (
	"context"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// RecommendRepository 每日推荐仓储
type RecommendRepository struct {
	db *gorm.DB
}

// NewRecommendRepository 创建RecommendRepository实例
func NewRecommendRepository(db *gorm.DB) *RecommendRepository {
	return &RecommendRepository{db: db}
}

// WithTx 绑定到事务
func (r *RecommendRepository) WithTx(tx *gorm.DB) *RecommendRepository {
	return &RecommendRepository{db: tx}
}

// FindByDate 按日期查找，包括已删除的
func (r *RecommendRepository) FindByDate(ctx context.Context, date string) (*model.Recommend, error) {
	var rec model.Recommend
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRecommendNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find recommend of %s", date)
	}
	return &rec, nil
}

// Save 创建或整行更新
func (r *RecommendRepository) Save(ctx context.Context, rec *model.Recommend) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(rec).Error, "save recommend")
}

// Latest [from, to] 日期范围内最新的一条推荐
func (r *RecommendRepository) Latest(ctx context.Context, from, to string) (*model.Recommend, error) {
	var rec model.Recommend
	err := r.db.WithContext(ctx).
		Where("status = ? AND date BETWEEN ? AND ?", model.RecordActive, from, to).
		Order("date DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrRecommendNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "latest recommend")
	}
	return &rec, nil
}

// ReplacePosts 替换推荐中的帖子，按传入顺序排序
func (r *RecommendRepository) ReplacePosts(ctx context.Context, recommendID uint, postIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recommend_id = ?", recommendID).Delete(&model.RecommendPost{}).Error; err != nil {
		return errors.Wrapf(err, "clear posts of recommend %d", recommendID)
	}
	if len(postIDs) == 0 {
		return nil
	}
	rows := make([]model.RecommendPost, len(postIDs))
	for i, id := range postIDs {
		rows[i] = model.RecommendPost{RecommendID: recommendID, PostID: id, Sort: i}
	}
	return errors.Wrapf(db.Create(&rows).Error, "add posts to recommend %d", recommendID)
}

// PostIDs 推荐中的帖子ID
func (r *RecommendRepository) PostIDs(ctx context.Context, recommendID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.RecommendPost{}).
		Where("recommend_id = ?", recommendID).
		Order("sort ASC").
		Pluck("post_id", &ids).Error
	return ids, errors.Wrapf(err, "list posts of recommend %d", recommendID)
}
