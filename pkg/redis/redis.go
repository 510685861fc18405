package redis

import (
	"context"
	"fmt"
	"time"

	"oasis/config"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix 所有业务key的统一前缀
const KeyPrefix = "oasis:"

var client *redis.Client

// ErrNotInitialized Redis客户端未初始化
var ErrNotInitialized = fmt.Errorf("redis客户端未初始化")

// InitRedis 初始化Redis连接
func InitRedis(ctx context.Context, cfg config.RedisConfig) error {
	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		// 连接池配置
		PoolSize:     10,              // 连接池大小
		MinIdleConns: 5,               // 最小空闲连接
		MaxRetries:   3,               // 最大重试次数
		DialTimeout:  5 * time.Second, // 连接超时
		ReadTimeout:  3 * time.Second, // 读超时
		WriteTimeout: 3 * time.Second, // 写超时
	})

	// 测试连接
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("redis连接失败: %w", err)
	}

	client = c
	return nil
}

// SetClient 直接注入客户端（测试中指向 miniredis）
func SetClient(c *redis.Client) {
	client = c
}

// Close 关闭Redis连接
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck 检查Redis健康状态
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return ErrNotInitialized
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis连接异常: %w", err)
	}

	return nil
}

func userKey(prefix string, userID uint) string {
	return fmt.Sprintf("%s%d", prefix, userID)
}
