package service

import (
	"context"
	"fmt"
	"strings"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"
	"oasis/pkg/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TextChecker 文本审核，命中敏感词时返回错误
type TextChecker interface {
	Check(text string) error
}

// CommentInput 发表评论
type CommentInput struct {
	PostID   uint   `json:"post" binding:"required"`
	ParentID *uint  `json:"parent"`
	Text     string `json:"text" binding:"required,max=1000"`
}

// CommentView 评论，附带点赞信息
type CommentView struct {
	*model.Comment
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

// CommentService 评论服务
type CommentService struct {
	db       *gorm.DB
	comments *repository.CommentRepository
	posts    *repository.PostRepository
	users    *repository.UserRepository
	resolver *ScopeResolver
	checker  TextChecker
	notifier notify.Notifier
}

// NewCommentService 创建评论服务
func NewCommentService(db *gorm.DB, checker TextChecker, notifier notify.Notifier) *CommentService {
	return &CommentService{
		db:       db,
		comments: repository.NewCommentRepository(db),
		posts:    repository.NewPostRepository(db),
		users:    repository.NewUserRepository(db),
		resolver: NewScopeResolver(db),
		checker:  checker,
		notifier: notifier,
	}
}

// Create 发表评论
// 发表时重新计算可见范围，范围外的帖子视为不存在
func (s *CommentService) Create(ctx context.Context, userID uint, in CommentInput) (*CommentView, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperrors.InvalidField("text", "text is required")
	}

	post, err := visiblePost(ctx, s.posts, s.resolver, userID, in.PostID)
	if err != nil {
		return nil, err
	}

	var parent *model.Comment
	if in.ParentID != nil {
		parent, err = s.comments.GetByID(ctx, *in.ParentID)
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, apperrors.ErrInvalidFieldValue("parent")
		}
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, apperrors.ErrParentPostMismatch
		}
	}

	if err := s.checker.Check(text); err != nil {
		return nil, err
	}

	comment := &model.Comment{UserID: userID, PostID: post.ID, ParentID: in.ParentID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	logger.Info("评论已发表",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("post_id", post.ID),
		zap.Uint("user_id", userID),
	)

	s.notifyCreated(ctx, userID, post, parent)

	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return &CommentView{Comment: created}, nil
}

func (s *CommentService) notifyCreated(ctx context.Context, userID uint, post *model.Post, parent *model.Comment) {
	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("查询评论用户失败", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	meta := map[string]string{
		"type":    "post_comment",
		"post_id": fmt.Sprint(post.ID),
		"user_id": fmt.Sprint(userID),
	}
	if post.UserID != userID {
		notify.Send(ctx, s.notifier, post.UserID, "帖子评论", fmt.Sprintf("用户%s评论了您的帖子", author.DisplayName()), meta)
	}
	if parent != nil && parent.UserID != userID {
		notify.Send(ctx, s.notifier, parent.UserID, "帖子评论回复", fmt.Sprintf("用户%s回复了您的评论", author.DisplayName()), map[string]string{
			"type":       "comment_reply",
			"post_id":    fmt.Sprint(post.ID),
			"comment_id": fmt.Sprint(parent.ID),
			"user_id":    fmt.Sprint(userID),
		})
	}
}

// List 帖子下的评论
func (s *CommentService) List(ctx context.Context, viewerID, postID uint, page repository.Page) ([]*CommentView, int64, error) {
	if _, err := visiblePost(ctx, s.posts, s.resolver, viewerID, postID); err != nil {
		return nil, 0, err
	}
	comments, total, err := s.comments.ListByPost(ctx, postID, page)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	counts, liked, err := s.comments.LikeStats(ctx, ids, viewerID)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*CommentView, len(comments))
	for i, c := range comments {
		views[i] = &CommentView{Comment: c, LikeCount: counts[c.ID], Liked: liked[c.ID]}
	}
	return views, total, nil
}

// Update 评论不可修改
func (s *CommentService) Update(ctx context.Context, userID, commentID uint) error {
	return apperrors.ErrCommentImmutable
}

// Delete 删除评论，其直接子评论提升为顶级评论
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return apperrors.ErrPermission
	}

	var promoted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := s.comments.WithTx(tx)
		n, err := comments.PromoteChildren(ctx, commentID)
		if err != nil {
			return err
		}
		promoted = n
		return comments.SoftDelete(ctx, commentID)
	})
	if err != nil {
		return err
	}

	logger.Info("评论已删除",
		zap.Uint("comment_id", commentID),
		zap.Uint("user_id", userID),
		zap.Int64("promoted", promoted),
	)
	return nil
}

// Like 点赞评论并通知评论人
func (s *CommentService) Like(ctx context.Context, viewerID, commentID uint) error {
	comment, err := s.visible(ctx, viewerID, commentID)
	if err != nil {
		return err
	}
	added, err := s.comments.Like(ctx, commentID, viewerID)
	if err != nil {
		return err
	}
	if !added || comment.UserID == viewerID {
		return nil
	}

	liker, err := s.users.GetByID(ctx, viewerID)
	if err != nil {
		logger.Warn("查询点赞用户失败", zap.Uint("user_id", viewerID), zap.Error(err))
		return nil
	}
	notify.Send(ctx, s.notifier, comment.UserID, "评论点赞", fmt.Sprintf("用户%s赞了您的评论", liker.DisplayName()), map[string]string{
		"type":       "comment_like",
		"post_id":    fmt.Sprint(comment.PostID),
		"comment_id": fmt.Sprint(commentID),
		"user_id":    fmt.Sprint(viewerID),
	})
	return nil
}

// Unlike 取消点赞
func (s *CommentService) Unlike(ctx context.Context, viewerID, commentID uint) error {
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return err
	}
	return s.comments.Unlike(ctx, commentID, viewerID)
}

// Likers 评论点赞用户列表
func (s *CommentService) Likers(ctx context.Context, viewerID, commentID uint, page repository.Page) ([]*model.User, int64, error) {
	if _, err := s.visible(ctx, viewerID, commentID); err != nil {
		return nil, 0, err
	}
	return s.comments.Likers(ctx, commentID, page)
}

// visible 评论所在帖子必须在可见范围内
func (s *CommentService) visible(ctx context.Context, viewerID, commentID uint) (*model.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := visiblePost(ctx, s.posts, s.resolver, viewerID, comment.PostID); err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}
