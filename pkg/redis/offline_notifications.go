package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OfflineNotification 离线通知结构
type OfflineNotification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// 离线通知相关常量
const (
	OfflineNotificationsKeyPrefix = KeyPrefix + "inbox:" // 离线通知key前缀
	OfflineNotificationsTTL       = 7 * 24 * time.Hour   // 7天过期
	MaxOfflineNotifications       = 100                  // 每个用户最多保留条数
)

// AddOfflineNotification 添加离线通知，同时累加未读计数
func AddOfflineNotification(ctx context.Context, userID uint, n *OfflineNotification) error {
	if client == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("序列化离线通知失败: %w", err)
	}

	key := userKey(OfflineNotificationsKeyPrefix, userID)
	counter := userKey(UnreadCountKeyPrefix, userID)

	// LPUSH 新通知在前，裁剪到上限并刷新TTL
	pipe := client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, MaxOfflineNotifications-1)
	pipe.Expire(ctx, key, OfflineNotificationsTTL)
	pipe.Incr(ctx, counter)
	pipe.Expire(ctx, counter, OfflineNotificationsTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("添加离线通知失败: %w", err)
	}

	return nil
}

// GetOfflineNotifications 获取用户的离线通知（不删除）
func GetOfflineNotifications(ctx context.Context, userID uint, limit int) ([]*OfflineNotification, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 || limit > MaxOfflineNotifications {
		limit = MaxOfflineNotifications
	}

	results, err := client.LRange(ctx, userKey(OfflineNotificationsKeyPrefix, userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("获取离线通知失败: %w", err)
	}
	return decodeNotifications(results), nil
}

// DrainOfflineNotifications 取出并清空用户的离线通知，未读计数归零
func DrainOfflineNotifications(ctx context.Context, userID uint) ([]*OfflineNotification, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}

	key := userKey(OfflineNotificationsKeyPrefix, userID)
	pipe := client.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key, userKey(UnreadCountKeyPrefix, userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("取出离线通知失败: %w", err)
	}
	return decodeNotifications(lrange.Val()), nil
}

// GetOfflineNotificationCount 获取用户离线通知数量
func GetOfflineNotificationCount(ctx context.Context, userID uint) (int64, error) {
	if client == nil {
		return 0, ErrNotInitialized
	}

	count, err := client.LLen(ctx, userKey(OfflineNotificationsKeyPrefix, userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("获取离线通知数量失败: %w", err)
	}
	return count, nil
}

func decodeNotifications(raw []string) []*OfflineNotification {
	out := make([]*OfflineNotification, 0, len(raw))
	for _, r := range raw {
		var n OfflineNotification
		if err := json.Unmarshal([]byte(r), &n); err != nil {
			continue // 跳过无法解析的通知
		}
		out = append(out, &n)
	}
	return out
}
