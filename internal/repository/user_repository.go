package repository

import (
	"context"

	"oasis/internal/model"
	apperrors "oasis/pkg/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserRepository 用户数据仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建UserRepository实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx 绑定到事务
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Create 创建用户，用户名或手机号重复时返回对应的业务错误
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if exists, _ := r.ExistsByTel(ctx, user.Tel); exists {
			return apperrors.ErrTelTaken
		}
		return apperrors.ErrUsernameTaken
	}
	return errors.Wrap(err, "create user")
}

// GetByID 根据ID获取用户
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get user %d", id)
	}
	return &u, nil
}

// GetByIDs 批量获取用户，按ID索引
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*model.User, error) {
	out := make(map[uint]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "get users")
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// GetByUsernameOrTel 登录时按用户名或手机号查找
func (r *UserRepository) GetByUsernameOrTel(ctx context.Context, identifier string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("username = ? OR tel = ?", identifier, identifier).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get user by identifier")
	}
	return &u, nil
}

// ExistsByUsernameOrTel 是否有用户的用户名或手机号为 account
func (r *UserRepository) ExistsByUsernameOrTel(ctx context.Context, account string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("username = ? OR tel = ?", account, account).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count users by identifier")
	}
	return count > 0, nil
}

// ExistsByTel 手机号是否已注册
func (r *UserRepository) ExistsByTel(ctx context.Context, tel string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("tel = ?", tel).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "count users by tel")
	}
	return count > 0, nil
}

// ExistsByUsername 用户名是否已被占用
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "count users by username")
	}
	return count > 0, nil
}

// UpdateProfile 更新资料字段
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.ErrUsernameTaken
	}
	return errors.Wrapf(err, "update user %d", id)
}
