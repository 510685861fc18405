package handler

import (
	apperrors "oasis/pkg/errors"
	"oasis/pkg/jwt"
	"oasis/pkg/redis"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 离线通知接口
type NotificationHandler struct{}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// List 取出离线通知，取出后清空并重置未读数
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := redis.DrainOfflineNotifications(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, apperrors.Unavailable("通知服务不可用", err))
		return
	}
	if items == nil {
		items = []*redis.OfflineNotification{}
	}
	response.Success(c, items)
}

// Peek 查看离线通知但不取出
func (h *NotificationHandler) Peek(c *gin.Context) {
	items, err := redis.GetOfflineNotifications(c.Request.Context(), jwt.GetUserID(c), pageOf(c).PageSize)
	if err != nil {
		response.FromError(c, apperrors.Unavailable("通知服务不可用", err))
		return
	}
	response.Success(c, items)
}

// Count 未读数与收件箱中的通知数
func (h *NotificationHandler) Count(c *gin.Context) {
	ctx, userID := c.Request.Context(), jwt.GetUserID(c)
	unread, err := redis.GetUnreadCount(ctx, userID)
	if err != nil {
		response.FromError(c, apperrors.Unavailable("通知服务不可用", err))
		return
	}
	inbox, err := redis.GetOfflineNotificationCount(ctx, userID)
	if err != nil {
		response.FromError(c, apperrors.Unavailable("通知服务不可用", err))
		return
	}
	response.Success(c, gin.H{"unread": unread, "inbox": inbox})
}

// MarkRead 未读数清零，通知保留在收件箱中
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := redis.ResetUnreadCount(c.Request.Context(), jwt.GetUserID(c)); err != nil {
		response.FromError(c, apperrors.Unavailable("通知服务不可用", err))
		return
	}
	response.Success(c, nil)
}
