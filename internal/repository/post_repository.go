package repository

import (
	"context"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BoundingBox 经纬度矩形范围，MinLongitude 大于 MaxLongitude 时表示跨越 ±180 经线
type BoundingBox struct {
	MinLongitude, MaxLongitude float64
	MinLatitude, MaxLatitude   float64
}

// CrossesAntimeridian 经度范围是否跨越 ±180
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.MinLongitude > b.MaxLongitude
}

// PostQuery 帖子查询条件，只返回未删除的帖子
type PostQuery struct {
	// IDs 非 nil 时只在这些帖子中查询
	IDs        []uint
	AuthorID   uint
	AuthorIDs  []uint
	Visibility *model.Visibility
	// Scope 可见范围过滤，由调用方提供
	Scope func(*gorm.DB) *gorm.DB
	// Box 非空时只返回带坐标且落在范围内的帖子
	Box *BoundingBox
}

// PostRepository 帖子仓储
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建PostRepository实例
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// WithTx 绑定到事务
func (r *PostRepository) WithTx(tx *gorm.DB) *PostRepository {
	return &PostRepository{db: tx}
}

// Create 创建帖子（连同图片）
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("User").Create(post).Error, "create post")
}

// GetByID 获取未删除的帖子
func (r *PostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC") }).
		Where("id = ? AND status = ?", id, model.RecordActive).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrPostNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get post %d", id)
	}
	return &post, nil
}

func (r *PostRepository) filter(ctx context.Context, q PostQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Post{}).Where("post.status = ?", model.RecordActive)
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			db = db.Where("1 = 0")
		} else {
			db = db.Where("post.id IN ?", q.IDs)
		}
	}
	if q.AuthorID != 0 {
		db = db.Where("post.user_id = ?", q.AuthorID)
	}
	if q.AuthorIDs != nil {
		if len(q.AuthorIDs) == 0 {
			db = db.Where("1 = 0")
		} else {
			db = db.Where("post.user_id IN ?", q.AuthorIDs)
		}
	}
	if q.Visibility != nil {
		db = db.Where("post.visibility = ?", *q.Visibility)
	}
	if q.Scope != nil {
		db = db.Scopes(q.Scope)
	}
	if q.Box != nil {
		db = db.Where("post.longitude IS NOT NULL AND post.latitude IS NOT NULL").
			Where("post.latitude BETWEEN ? AND ?", q.Box.MinLatitude, q.Box.MaxLatitude)
		if q.Box.CrossesAntimeridian() {
			db = db.Where("(post.longitude >= ? OR post.longitude <= ?)", q.Box.MinLongitude, q.Box.MaxLongitude)
		} else {
			db = db.Where("post.longitude BETWEEN ? AND ?", q.Box.MinLongitude, q.Box.MaxLongitude)
		}
	}
	return db
}

// List 按条件分页查询，按发布时间倒序
func (r *PostRepository) List(ctx context.Context, q PostQuery, page Page) ([]*model.Post, int64, error) {
	var total int64
	if err := r.filter(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count posts")
	}

	var posts []*model.Post
	db := r.filter(ctx, q).
		Preload("User").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC") }).
		Order("post.time DESC").Order("post.id DESC")
	if err := page.Apply(db).Find(&posts).Error; err != nil {
		return nil, 0, errors.Wrap(err, "list posts")
	}
	return posts, total, nil
}

// Exists 帖子在条件下是否可见
func (r *PostRepository) Exists(ctx context.Context, id uint, q PostQuery) (bool, error) {
	var count int64
	if err := r.filter(ctx, q).Where("post.id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrapf(err, "check post %d", id)
	}
	return count > 0, nil
}

// Update 更新帖子字段
func (r *PostRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(fields).Error
	return errors.Wrapf(err, "update post %d", id)
}

// ReplaceImages 替换帖子图片
func (r *PostRepository) ReplaceImages(ctx context.Context, postID uint, urls []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&model.PostImage{}).Error; err != nil {
		return errors.Wrapf(err, "clear images of post %d", postID)
	}
	if len(urls) == 0 {
		return nil
	}
	images := make([]model.PostImage, len(urls))
	for i, u := range urls {
		images[i] = model.PostImage{PostID: postID, URL: u, Sort: i}
	}
	return errors.Wrapf(db.Create(&images).Error, "insert images of post %d", postID)
}

// SoftDelete 软删除帖子
func (r *PostRepository) SoftDelete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).
		Update("status", model.RecordAbandoned).Error
	return errors.Wrapf(err, "delete post %d", id)
}

// Like 点赞，重复点赞无副作用，返回是否新增
func (r *PostRepository) Like(ctx context.Context, postID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.PostLike{PostID: postID, UserID: userID})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "like post %d", postID)
	}
	return res.RowsAffected > 0, nil
}

// Unlike 取消点赞
func (r *PostRepository) Unlike(ctx context.Context, postID, userID uint) error {
	err := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&model.PostLike{}).Error
	return errors.Wrapf(err, "unlike post %d", postID)
}

// Likers 点赞用户列表
func (r *PostRepository) Likers(ctx context.Context, postID uint, page Page) ([]*model.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN post_like ON post_like.user_id = user.id").
		Where("post_like.post_id = ?", postID).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "count likers of post %d", postID)
	}
	var users []*model.User
	if err := page.Apply(base).Order("post_like.created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, errors.Wrapf(err, "list likers of post %d", postID)
	}
	return users, total, nil
}

// Stats 帖子点赞数、评论数以及当前用户是否点赞
type Stats struct {
	LikeCount    int64
	CommentCount int64
	Liked        bool
}

// StatsFor 批量统计
func (r *PostRepository) StatsFor(ctx context.Context, postIDs []uint, viewerID uint) (map[uint]*Stats, error) {
	out := make(map[uint]*Stats, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	for _, id := range postIDs {
		out[id] = &Stats{}
	}

	type row struct {
		PostID uint
		N      int64
	}
	var likes []row
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Select("post_id, COUNT(*) AS n").Where("post_id IN ?", postIDs).
		Group("post_id").Scan(&likes).Error
	if err != nil {
		return nil, errors.Wrap(err, "count post likes")
	}
	for _, l := range likes {
		out[l.PostID].LikeCount = l.N
	}

	var comments []row
	err = r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ? AND status = ?", postIDs, model.RecordActive).
		Group("post_id").Scan(&comments).Error
	if err != nil {
		return nil, errors.Wrap(err, "count post comments")
	}
	for _, c := range comments {
		out[c.PostID].CommentCount = c.N
	}

	if viewerID != 0 {
		var liked []uint
		err = r.db.WithContext(ctx).Model(&model.PostLike{}).
			Where("post_id IN ? AND user_id = ?", postIDs, viewerID).
			Pluck("post_id", &liked).Error
		if err != nil {
			return nil, errors.Wrap(err, "check post likes")
		}
		for _, id := range liked {
			out[id].Liked = true
		}
	}
	return out, nil
}
