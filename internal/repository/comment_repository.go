package repository

import (
	"context"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository 评论仓储
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository 创建CommentRepository实例
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// WithTx 绑定到事务
func (r *CommentRepository) WithTx(tx *gorm.DB) *CommentRepository {
	return &CommentRepository{db: tx}
}

// Create 创建评论
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("User").Create(c).Error, "create comment")
}

// GetByID 获取未删除的评论
func (r *CommentRepository) GetByID(ctx context.Context, id uint) (*model.Comment, error) {
	var c model.Comment
	err := r.db.WithContext(ctx).Preload("User").
		Where("id = ? AND status = ?", id, model.RecordActive).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCommentNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get comment %d", id)
	}
	return &c, nil
}

// ListByPost 帖子下的评论，按时间正序
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint, page Page) ([]*model.Comment, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ? AND status = ?", postID, model.RecordActive).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "count comments of post %d", postID)
	}
	var comments []*model.Comment
	if err := page.Apply(base).Preload("User").Order("id ASC").Find(&comments).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "list comments of post %d", postID)
	}
	return comments, total, nil
}

// PromoteChildren 将直接子评论提升为顶级评论
func (r *CommentRepository) PromoteChildren(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("parent_id = ?", id).
		Update("parent_id", nil)
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "promote children of comment %d", id)
	}
	return res.RowsAffected, nil
}

// SoftDelete 软删除评论
func (r *CommentRepository) SoftDelete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).
		Update("status", model.RecordAbandoned).Error
	return errors.Wrapf(err, "delete comment %d", id)
}

// Like 点赞，返回是否新增
func (r *CommentRepository) Like(ctx context.Context, commentID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CommentLike{CommentID: commentID, UserID: userID})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "like comment %d", commentID)
	}
	return res.RowsAffected > 0, nil
}

// Unlike 取消点赞
func (r *CommentRepository) Unlike(ctx context.Context, commentID, userID uint) error {
	err := r.db.WithContext(ctx).Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&model.CommentLike{}).Error
	return errors.Wrapf(err, "unlike comment %d", commentID)
}

// Likers 评论点赞用户
func (r *CommentRepository) Likers(ctx context.Context, commentID uint, page Page) ([]*model.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN comment_like ON comment_like.user_id = user.id").
		Where("comment_like.comment_id = ?", commentID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "count likers of comment %d", commentID)
	}
	var users []*model.User
	if err := page.Apply(base).Order("comment_like.created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "list likers of comment %d", commentID)
	}
	return users, total, nil
}

// LikeStats 批量统计评论点赞数与当前用户是否点赞
func (r *CommentRepository) LikeStats(ctx context.Context, commentIDs []uint, viewerID uint) (map[uint]int64, map[uint]bool, error) {
	counts := make(map[uint]int64, len(commentIDs))
	liked := make(map[uint]bool)
	if len(commentIDs) == 0 {
		return counts, liked, nil
	}

	type row struct {
		CommentID uint
		N         int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.CommentLike{}).
		Select("comment_id, COUNT(*) AS n").Where("comment_id IN ?", commentIDs).
		Group("comment_id").Scan(&rows).Error
	if err != nil {
		return nil, nil, errors.Wrap(err, "count comment likes")
	}
	for _, row := range rows {
		counts[row.CommentID] = row.N
	}

	var ids []uint
	err = r.db.WithContext(ctx).Model(&model.CommentLike{}).
		Where("comment_id IN ? AND user_id = ?", commentIDs, viewerID).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, nil, errors.Wrap(err, "check comment likes")
	}
	for _, id := range ids {
		liked[id] = true
	}
	return counts, liked, nil
}
