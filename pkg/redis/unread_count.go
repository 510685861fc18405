package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 未读通知计数相关常量
const (
	UnreadCountKeyPrefix = KeyPrefix + "unread:" // 未读通知计数key前缀
)

// GetUnreadCount 获取用户未读通知计数，key不存在时为0
func GetUnreadCount(ctx context.Context, userID uint) (int64, error) {
	if client == nil {
		return 0, ErrNotInitialized
	}

	count, err := client.Get(ctx, userKey(UnreadCountKeyPrefix, userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("获取未读通知计数失败: %w", err)
	}
	return count, nil
}

// ResetUnreadCount 重置用户未读通知计数为0
func ResetUnreadCount(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}

	// 删除key，相当于重置为0
	if err := client.Del(ctx, userKey(UnreadCountKeyPrefix, userID)).Err(); err != nil {
		return fmt.Errorf("重置未读通知计数失败: %w", err)
	}
	return nil
}
