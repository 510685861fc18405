package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 验证码相关key前缀
const (
	VerifyCodeKeyPrefix     = KeyPrefix + "verify:code:"     // 验证码
	VerifyThrottleKeyPrefix = KeyPrefix + "verify:throttle:" // 发送频率限制
)

// ErrVerifyThrottled 发送过于频繁
var ErrVerifyThrottled = errors.New("verification code requested too frequently")

func verifyKey(prefix, purpose, tel string) string {
	return fmt.Sprintf("%s%s:%s", prefix, purpose, tel)
}

// SaveVerifyCode 保存验证码
// resendAfter 内重复发送返回 ErrVerifyThrottled，旧验证码保持不变
func SaveVerifyCode(ctx context.Context, tel, purpose, code string, ttl, resendAfter time.Duration) error {
	if client == nil {
		return ErrNotInitialized
	}

	ok, err := client.SetNX(ctx, verifyKey(VerifyThrottleKeyPrefix, purpose, tel), 1, resendAfter).Result()
	if err != nil {
		return fmt.Errorf("设置验证码频率限制失败: %w", err)
	}
	if !ok {
		return ErrVerifyThrottled
	}

	if err := client.Set(ctx, verifyKey(VerifyCodeKeyPrefix, purpose, tel), code, ttl).Err(); err != nil {
		return fmt.Errorf("保存验证码失败: %w", err)
	}
	return nil
}

// GetVerifyCode 读取验证码，不存在时返回空串
func GetVerifyCode(ctx context.Context, tel, purpose string) (string, error) {
	if client == nil {
		return "", ErrNotInitialized
	}

	code, err := client.Get(ctx, verifyKey(VerifyCodeKeyPrefix, purpose, tel)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("读取验证码失败: %w", err)
	}
	return code, nil
}

// DeleteVerifyCode 验证通过后删除验证码
func DeleteVerifyCode(ctx context.Context, tel, purpose string) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Del(ctx, verifyKey(VerifyCodeKeyPrefix, purpose, tel)).Err()
}
