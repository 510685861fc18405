package repository

import (
	"context"
	"time"

	"oasis/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository 关注关系仓储
type FollowRepository struct {
	db *gorm.DB
}

// NewFollowRepository 创建FollowRepository实例
func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Follow 关注，已取消的关注会被恢复
func (r *FollowRepository) Follow(ctx context.Context, fromUserID, toUserID uint) error {
	f := &model.Follow{FromUserID: fromUserID, ToUserID: toUserID, Status: model.RecordActive}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "to_user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": model.RecordActive, "updated_at": time.Now()}),
	}).Omit(clause.Associations).Create(f).Error
	return errors.Wrapf(err, "follow %d->%d", fromUserID, toUserID)
}

// Unfollow 取消关注
func (r *FollowRepository) Unfollow(ctx context.Context, fromUserID, toUserID uint) error {
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Update("status", model.RecordAbandoned).Error
	return errors.Wrapf(err, "unfollow %d->%d", fromUserID, toUserID)
}

// Exists 是否正在关注
func (r *FollowRepository) Exists(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromUserID, toUserID, model.RecordActive).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "check follow %d->%d", fromUserID, toUserID)
	}
	return count > 0, nil
}

// Following 我关注的人
func (r *FollowRepository) Following(ctx context.Context, userID uint, page Page) ([]*model.Follow, int64, error) {
	return r.list(ctx, "from_user_id", userID, "ToUser", page)
}

// Fans 关注我的人
func (r *FollowRepository) Fans(ctx context.Context, userID uint, page Page) ([]*model.Follow, int64, error) {
	return r.list(ctx, "to_user_id", userID, "FromUser", page)
}

func (r *FollowRepository) list(ctx context.Context, column string, userID uint, preload string, page Page) ([]*model.Follow, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where(column+" = ? AND status = ?", userID, model.RecordActive).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count follows")
	}
	var follows []*model.Follow
	if err := page.Apply(base).Preload(preload).Order("updated_at DESC").Find(&follows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list follows")
	}
	return follows, total, nil
}
