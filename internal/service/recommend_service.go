package service

import (
	"context"
	"time"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecommendWindowDays 只取最近这些天内的推荐
const RecommendWindowDays = 10

// RecommendInput 发布某天的推荐，同一天再次发布会替换原有内容
type RecommendInput struct {
	UserID  uint   `json:"user_id" binding:"required"`
	Date    string `json:"date" binding:"required,datetime=2006-01-02"`
	PostIDs []uint `json:"post_ids" binding:"required,min=1,max=50"`
}

// RecommendView 推荐及其帖子ID
type RecommendView struct {
	*model.Recommend
	PostIDs []uint `json:"post_ids"`
}

// RecommendService 每日推荐
type RecommendService struct {
	db    *gorm.DB
	recs  *repository.RecommendRepository
	users *repository.UserRepository
	posts *PostService
	now   func() time.Time
}

// NewRecommendService 创建推荐服务
func NewRecommendService(db *gorm.DB, posts *PostService) *RecommendService {
	return &RecommendService{
		db:    db,
		recs:  repository.NewRecommendRepository(db),
		users: repository.NewUserRepository(db),
		posts: posts,
		now:   time.Now,
	}
}

// Publish 发布推荐
func (s *RecommendService) Publish(ctx context.Context, in RecommendInput) (*RecommendView, error) {
	if _, err := time.Parse(model.RecommendDateLayout, in.Date); err != nil {
		return nil, apperrors.ErrInvalidFieldValue("date")
	}
	if len(in.PostIDs) == 0 {
		return nil, apperrors.InvalidField("post_ids", "at least one post is required")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	postIDs := uniqueIDs(in.PostIDs)
	for _, id := range postIDs {
		if _, err := s.posts.posts.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	var rec *model.Recommend
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recs := s.recs.WithTx(tx)
		var err error
		rec, err = recs.FindByDate(ctx, in.Date)
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			rec, err = &model.Recommend{Date: in.Date}, nil
		}
		if err != nil {
			return err
		}
		rec.UserID = in.UserID
		rec.Status = model.RecordActive
		if err := recs.Save(ctx, rec); err != nil {
			return err
		}
		return recs.ReplacePosts(ctx, rec.ID, postIDs)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("推荐已发布", zap.String("date", in.Date), zap.Int("posts", len(postIDs)))
	return &RecommendView{Recommend: rec, PostIDs: postIDs}, nil
}

// Posts 最近一次推荐中的帖子，按可见范围过滤；没有推荐时为空
func (s *RecommendService) Posts(ctx context.Context, viewerID uint, page repository.Page) ([]*PostView, int64, error) {
	today := s.now()
	rec, err := s.recs.Latest(ctx,
		today.AddDate(0, 0, -RecommendWindowDays).Format(model.RecommendDateLayout),
		today.Format(model.RecommendDateLayout),
	)
	if apperrors.CodeOf(err) == apperrors.CodeNotFound {
		return []*PostView{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	ids, err := s.recs.PostIDs(ctx, rec.ID)
	if err != nil {
		return nil, 0, err
	}
	if ids == nil {
		ids = []uint{}
	}
	scope, err := s.posts.resolver.Resolve(ctx, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return s.posts.list(ctx, viewerID, repository.PostQuery{IDs: ids, Scope: scope.Where}, page)
}

// uniqueIDs 去重并保持顺序
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
