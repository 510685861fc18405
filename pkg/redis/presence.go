package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// 在线状态相关常量
const (
	PresenceKeyPrefix = KeyPrefix + "presence:" // 用户在线状态key前缀
	OnlineUsersKey    = KeyPrefix + "online"    // 在线用户集合key
	PresenceTTL       = 2 * time.Minute         // 在线状态TTL（2倍心跳周期）
)

// SetUserOnline 标记用户上线
func SetUserOnline(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}

	pipe := client.TxPipeline()
	pipe.Set(ctx, userKey(PresenceKeyPrefix, userID), time.Now().Unix(), PresenceTTL)
	pipe.SAdd(ctx, OnlineUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("设置用户在线状态失败: %w", err)
	}
	return nil
}

// SetUserOffline 标记用户下线
func SetUserOffline(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}

	pipe := client.TxPipeline()
	pipe.Del(ctx, userKey(PresenceKeyPrefix, userID))
	pipe.SRem(ctx, OnlineUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("设置用户离线状态失败: %w", err)
	}
	return nil
}

// RefreshUserPresence 心跳续期
func RefreshUserPresence(ctx context.Context, userID uint) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Expire(ctx, userKey(PresenceKeyPrefix, userID), PresenceTTL).Err()
}

// OnlineAmong 返回给定用户中在线的集合
// 以presence key是否存在为准，集合中残留的过期成员不算在线
func OnlineAmong(ctx context.Context, userIDs []uint) (map[uint]bool, error) {
	online := make(map[uint]bool, len(userIDs))
	if len(userIDs) == 0 {
		return online, nil
	}
	if client == nil {
		return nil, ErrNotInitialized
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userKey(PresenceKeyPrefix, id)
	}
	vals, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("批量获取在线状态失败: %w", err)
	}
	for i, v := range vals {
		if v != nil {
			online[userIDs[i]] = true
		}
	}
	return online, nil
}

// GetOnlineUserIDs 获取在线用户集合（管理与压测使用）
func GetOnlineUserIDs(ctx context.Context) ([]uint, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}

	members, err := client.SMembers(ctx, OnlineUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("获取在线用户失败: %w", err)
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseUint(m, 10, 64); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}
