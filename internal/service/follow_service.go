package service

import (
	"context"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowService 关注服务
type FollowService struct {
	follows *repository.FollowRepository
	users   *repository.UserRepository
}

// NewFollowService 创建关注服务
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{
		follows: repository.NewFollowRepository(db),
		users:   repository.NewUserRepository(db),
	}
}

// Follow 关注用户
func (s *FollowService) Follow(ctx context.Context, fromUserID, toUserID uint) error {
	if toUserID == 0 {
		return apperrors.ErrInvalidUserID
	}
	if fromUserID == toUserID {
		return apperrors.ErrCannotFollowSelf
	}
	if _, err := s.users.GetByID(ctx, toUserID); err != nil {
		return err
	}
	if err := s.follows.Follow(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	logger.Info("关注成功", zap.Uint("from_user_id", fromUserID), zap.Uint("to_user_id", toUserID))
	return nil
}

// Unfollow 取消关注，未关注时无副作用
func (s *FollowService) Unfollow(ctx context.Context, fromUserID, toUserID uint) error {
	return s.follows.Unfollow(ctx, fromUserID, toUserID)
}

// IsFollowing 是否正在关注
func (s *FollowService) IsFollowing(ctx context.Context, fromUserID, toUserID uint) (bool, error) {
	return s.follows.Exists(ctx, fromUserID, toUserID)
}

// Following 关注列表
func (s *FollowService) Following(ctx context.Context, userID uint, page repository.Page) ([]*model.Follow, int64, error) {
	return s.follows.Following(ctx, userID, page)
}

// Fans 粉丝列表
func (s *FollowService) Fans(ctx context.Context, userID uint, page repository.Page) ([]*model.Follow, int64, error) {
	return s.follows.Fans(ctx, userID, page)
}
