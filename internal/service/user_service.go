package service

import (
	"context"
	"strings"

	"oasis/internal/model"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/jwt"
	"oasis/pkg/logger"
	"oasis/pkg/password"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterInput 注册
type RegisterInput struct {
	Tel      string `json:"tel" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username" binding:"omitempty,max=150"`
	Nickname string `json:"nickname" binding:"omitempty,max=30"`
}

// LoginInput 登录，Username 可以是用户名或手机号，Password 与 Code 二选一
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// ProfilePatch 修改资料
type ProfilePatch struct {
	Nickname     *string       `json:"nickname" binding:"omitempty,max=30"`
	Avatar       *string       `json:"avatar" binding:"omitempty,max=255"`
	Gender       *model.Gender `json:"gender"`
	Location     *string       `json:"location" binding:"omitempty,max=255"`
	Introduction *string       `json:"introduction"`
}

// AuthResult 注册/登录结果
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// UserService 用户服务
type UserService struct {
	users      *repository.UserRepository
	rels       *repository.RelationshipRepository
	verify     *VerifyService
	jwtService *jwt.JWTService
}

func NewUserService(db *gorm.DB, verify *VerifyService, jwtService *jwt.JWTService) *UserService {
	return &UserService{
		users:      repository.NewUserRepository(db),
		rels:       repository.NewRelationshipRepository(db),
		verify:     verify,
		jwtService: jwtService,
	}
}

func hashPassword(plain string) (string, error) {
	hash, err := password.Hash(plain)
	if errors.Is(err, password.ErrTooShort) {
		return "", apperrors.InvalidField("password", "password is too short")
	}
	return hash, err
}

// Register 手机号 + 验证码注册，未提供用户名时使用手机号
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	tel := strings.TrimSpace(in.Tel)
	if !IsTel(tel) {
		return nil, apperrors.ErrInvalidTel
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = tel
	}
	// 验证码放在最后校验，校验通过即失效
	exists, err := s.users.ExistsByTel(ctx, tel)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrTelTaken
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.verify.Check(ctx, tel, PurposeRegister, in.Code); err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Tel:          tel,
		PasswordHash: hash,
		Nickname:     strings.TrimSpace(in.Nickname),
		Gender:       model.GenderSecret,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return s.issue(user)
}

// Login 用户名或手机号登录，支持密码或验证码
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	identifier := strings.TrimSpace(in.Username)
	if identifier == "" {
		return nil, apperrors.ErrInvalidCredential
	}
	user, err := s.users.GetByUsernameOrTel(ctx, identifier)
	if apperrors.CodeOf(err) == apperrors.CodeNotFound {
		return nil, apperrors.ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	switch {
	case in.Password != "":
		if !password.Verify(in.Password, user.PasswordHash) {
			return nil, apperrors.ErrInvalidCredential
		}
	case in.Code != "":
		if err := s.verify.Check(ctx, user.Tel, PurposeLogin, in.Code); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.InvalidField("password", "password or code is required")
	}
	return s.issue(user)
}

func (s *UserService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.jwtService.GenerateToken(user.ID, map[string]interface{}{"username": user.Username})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ChangePassword 旧密码修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(oldPassword, user.PasswordHash) {
		return apperrors.InvalidField("pwd_old", "old password is wrong")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdateProfile(ctx, userID, map[string]interface{}{"password_hash": hash})
}

// ResetPassword 验证码找回密码
func (s *UserService) ResetPassword(ctx context.Context, tel, code, newPassword string) error {
	if !IsTel(tel) {
		return apperrors.ErrInvalidTel
	}
	user, err := s.users.GetByUsernameOrTel(ctx, tel)
	if err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.verify.Check(ctx, tel, PurposeResetPassword, code); err != nil {
		return err
	}
	return s.users.UpdateProfile(ctx, user.ID, map[string]interface{}{"password_hash": hash})
}

// ChangeTel 验证新号码后换绑
func (s *UserService) ChangeTel(ctx context.Context, userID uint, tel, code string) error {
	if !IsTel(tel) {
		return apperrors.ErrInvalidTel
	}
	exists, err := s.users.ExistsByTel(ctx, tel)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrTelTaken
	}
	if err := s.verify.Check(ctx, tel, PurposeChangeTel, code); err != nil {
		return err
	}
	return s.users.UpdateProfile(ctx, userID, map[string]interface{}{"tel": tel})
}

// Profile 当前用户资料
func (s *UserService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile 修改资料
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*model.User, error) {
	fields := map[string]interface{}{}
	if patch.Nickname != nil {
		fields["nickname"] = strings.TrimSpace(*patch.Nickname)
	}
	if patch.Avatar != nil {
		fields["avatar"] = *patch.Avatar
	}
	if patch.Gender != nil {
		g := *patch.Gender
		if g != model.GenderFemale && g != model.GenderMale && g != model.GenderSecret {
			return nil, apperrors.ErrInvalidFieldValue("gender")
		}
		fields["gender"] = g
	}
	if patch.Location != nil {
		fields["location"] = *patch.Location
	}
	if patch.Introduction != nil {
		fields["introduction"] = *patch.Introduction
	}
	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// Retrieve 查看用户，拉黑了我的用户对我不可见
func (s *UserService) Retrieve(ctx context.Context, viewerID, userID uint) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if userID == viewerID {
		return user, nil
	}
	rel, err := s.rels.Find(ctx, userID, viewerID)
	if err != nil {
		return nil, err
	}
	if rel != nil && rel.IsBlock {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// Exists 用户名或手机号是否已被使用
func (s *UserService) Exists(ctx context.Context, account string) (bool, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return false, apperrors.InvalidField("username", "username is required")
	}
	return s.users.ExistsByUsernameOrTel(ctx, account)
}
