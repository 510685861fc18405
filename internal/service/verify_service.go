package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"oasis/config"
	"oasis/internal/repository"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"
	"oasis/pkg/redis"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Purpose 验证码用途
type Purpose string

const (
	PurposeRegister      Purpose = "register"       // 注册
	PurposeResetPassword Purpose = "reset_password" // 找回密码
	PurposeChangeTel     Purpose = "change_tel"     // 修改绑定手机
	PurposeLogin         Purpose = "login"          // 验证码登录
)

// Valid 是否为已定义的用途
func (p Purpose) Valid() bool {
	switch p {
	case PurposeRegister, PurposeResetPassword, PurposeChangeTel, PurposeLogin:
		return true
	}
	return false
}

var telPattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// IsTel 是否为合法的手机号码
func IsTel(tel string) bool {
	return telPattern.MatchString(tel)
}

// SMSSender 短信网关
type SMSSender interface {
	Send(ctx context.Context, tel, content string) error
}

// LogSMSSender 只把短信内容写进日志，开发环境使用
type LogSMSSender struct{}

func (LogSMSSender) Send(ctx context.Context, tel, content string) error {
	logger.Info("发送短信", zap.String("tel", tel), zap.String("content", content))
	return nil
}

// VerifyCodeInput 请求发送验证码
type VerifyCodeInput struct {
	Tel     string  `json:"tel" binding:"required"`
	Purpose Purpose `json:"purpose" binding:"required"`
}

// VerifyService 短信验证码服务
type VerifyService struct {
	cfg      config.VerifyConfig
	users    *repository.UserRepository
	sender   SMSSender
	generate func() (string, error)
}

// NewVerifyService 创建验证码服务
func NewVerifyService(db *gorm.DB, cfg config.VerifyConfig, sender SMSSender) *VerifyService {
	return &VerifyService{
		cfg:      cfg,
		users:    repository.NewUserRepository(db),
		sender:   sender,
		generate: randomCode,
	}
}

// randomCode 6位数字验证码
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Send 生成并发送验证码
// 注册要求手机号未注册，找回密码要求手机号已注册
func (s *VerifyService) Send(ctx context.Context, in VerifyCodeInput) error {
	if !IsTel(in.Tel) {
		return apperrors.ErrInvalidTel
	}
	if !in.Purpose.Valid() {
		return apperrors.ErrInvalidFieldValue("purpose")
	}

	exists, err := s.users.ExistsByTel(ctx, in.Tel)
	if err != nil {
		return err
	}
	switch {
	case in.Purpose == PurposeRegister && exists:
		return apperrors.ErrTelTaken
	case in.Purpose == PurposeChangeTel && exists:
		return apperrors.ErrTelTaken
	case (in.Purpose == PurposeResetPassword || in.Purpose == PurposeLogin) && !exists:
		return apperrors.ErrUserNotFound
	}

	code, err := s.generate()
	if err != nil {
		return errors.Wrap(err, "generate verify code")
	}
	err = redis.SaveVerifyCode(ctx, in.Tel, string(in.Purpose), code, s.cfg.CodeTTL, s.cfg.ResendAfter)
	if errors.Is(err, redis.ErrVerifyThrottled) {
		return apperrors.ErrVerifyTooFrequent
	}
	if err != nil {
		return apperrors.Unavailable("verify code store unavailable", err)
	}

	content := fmt.Sprintf("您的验证码为%s，%d分钟内有效", code, int(s.cfg.CodeTTL.Minutes()))
	if err := s.sender.Send(ctx, in.Tel, content); err != nil {
		logger.Error("短信发送失败", zap.String("tel", in.Tel), zap.Error(err))
		_ = redis.DeleteVerifyCode(ctx, in.Tel, string(in.Purpose))
		return apperrors.Unavailable("sms gateway unavailable", err)
	}
	return nil
}

// Check 校验验证码，通过后验证码失效
func (s *VerifyService) Check(ctx context.Context, tel string, purpose Purpose, code string) error {
	saved, err := redis.GetVerifyCode(ctx, tel, string(purpose))
	if err != nil {
		return apperrors.Unavailable("verify code store unavailable", err)
	}
	if saved == "" {
		return apperrors.ErrVerifyCodeMissing
	}
	if saved != code {
		return apperrors.ErrVerifyCodeWrong
	}
	if err := redis.DeleteVerifyCode(ctx, tel, string(purpose)); err != nil {
		logger.Warn("删除验证码失败", zap.String("tel", tel), zap.Error(err))
	}
	return nil
}
