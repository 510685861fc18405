package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 敏感词相关key
const (
	SensitiveWordsKey      = KeyPrefix + "sensitive:words"  // 敏感词集合
	SensitiveReloadChannel = KeyPrefix + "sensitive:reload" // 重载通知频道
)

// AddSensitiveWords 添加敏感词
func AddSensitiveWords(ctx context.Context, words ...string) error {
	if client == nil {
		return ErrNotInitialized
	}
	if len(words) == 0 {
		return nil
	}

	members := make([]interface{}, len(words))
	for i, w := range words {
		members[i] = w
	}
	if err := client.SAdd(ctx, SensitiveWordsKey, members...).Err(); err != nil {
		return fmt.Errorf("添加敏感词失败: %w", err)
	}
	return nil
}

// RemoveSensitiveWords 删除敏感词
func RemoveSensitiveWords(ctx context.Context, words ...string) error {
	if client == nil {
		return ErrNotInitialized
	}
	if len(words) == 0 {
		return nil
	}

	members := make([]interface{}, len(words))
	for i, w := range words {
		members[i] = w
	}
	if err := client.SRem(ctx, SensitiveWordsKey, members...).Err(); err != nil {
		return fmt.Errorf("删除敏感词失败: %w", err)
	}
	return nil
}

// GetSensitiveWords 读取全部敏感词
func GetSensitiveWords(ctx context.Context) ([]string, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}

	words, err := client.SMembers(ctx, SensitiveWordsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("读取敏感词失败: %w", err)
	}
	return words, nil
}

// PublishSensitiveReload 通知所有实例重新加载敏感词
func PublishSensitiveReload(ctx context.Context) error {
	if client == nil {
		return ErrNotInitialized
	}
	return client.Publish(ctx, SensitiveReloadChannel, "reload").Err()
}

// SubscribeSensitiveReload 订阅敏感词重载频道
func SubscribeSensitiveReload(ctx context.Context) (*redis.PubSub, error) {
	if client == nil {
		return nil, ErrNotInitialized
	}

	sub := client.Subscribe(ctx, SensitiveReloadChannel)
	// 等待订阅确认，避免错过紧随其后的发布
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("订阅敏感词频道失败: %w", err)
	}
	return sub, nil
}
