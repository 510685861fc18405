// Package notify 站内通知投递：在线时经WebSocket推送，离线时写入Redis收件箱
package notify

import (
	"context"
	"encoding/json"
	"time"

	"oasis/pkg/logger"
	"oasis/pkg/redis"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks oasis/pkg/notify Notifier

// Notifier 通知网关
type Notifier interface {
	Notify(ctx context.Context, userID uint, title, body string, metadata map[string]string) error
}

// Pusher 在线推送通道，返回是否已送达
type Pusher interface {
	Push(userID uint, payload []byte) bool
}

// Inbox 离线收件箱
type Inbox interface {
	Add(ctx context.Context, userID uint, n *redis.OfflineNotification) error
}

// RedisInbox 基于 pkg/redis 的离线收件箱
type RedisInbox struct{}

func (RedisInbox) Add(ctx context.Context, userID uint, n *redis.OfflineNotification) error {
	return redis.AddOfflineNotification(ctx, userID, n)
}

// Hub 默认的通知网关实现
type Hub struct {
	pusher Pusher
	inbox  Inbox
	now    func() time.Time
}

// NewHub 创建通知网关
func NewHub(pusher Pusher, inbox Inbox) *Hub {
	return &Hub{pusher: pusher, inbox: inbox, now: time.Now}
}

type pushEnvelope struct {
	Type string                     `json:"type"`
	Data *redis.OfflineNotification `json:"data"`
}

// Notify 投递一条通知
func (h *Hub) Notify(ctx context.Context, userID uint, title, body string, metadata map[string]string) error {
	n := &redis.OfflineNotification{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Metadata:  metadata,
		CreatedAt: h.now(),
	}

	payload, err := json.Marshal(pushEnvelope{Type: "notification", Data: n})
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	if h.pusher != nil && h.pusher.Push(userID, payload) {
		return nil
	}

	if err := h.inbox.Add(ctx, userID, n); err != nil {
		return errors.Wrapf(err, "store offline notification for user %d", userID)
	}
	return nil
}

// Send 通知失败只记录日志，不影响已提交的业务
func Send(ctx context.Context, n Notifier, userID uint, title, body string, metadata map[string]string) {
	if n == nil || userID == 0 {
		return
	}
	if err := n.Notify(ctx, userID, title, body, metadata); err != nil {
		logger.Warn("通知发送失败",
			zap.Uint("user_id", userID),
			zap.String("title", title),
			zap.Error(err),
		)
	}
}
