package handler

import (
	"context"
	"crypto/subtle"

	apperrors "oasis/pkg/errors"
	"oasis/pkg/logger"
	"oasis/pkg/redis"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminTokenHeader 管理接口令牌请求头
const AdminTokenHeader = "X-Admin-Token"

// Reloader 可重新加载的组件
type Reloader interface {
	Reload(ctx context.Context) error
}

// AdminHandler 管理接口
type AdminHandler struct {
	token  string
	filter Reloader
}

func NewAdminHandler(token string, filter Reloader) *AdminHandler {
	return &AdminHandler{token: token, filter: filter}
}

// RequireToken 校验管理令牌，未配置令牌时管理接口整体关闭
func (h *AdminHandler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(AdminTokenHeader)
		if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			response.Forbidden(c, "管理令牌无效")
			return
		}
		c.Next()
	}
}

// ReloadSensitiveWords 增删敏感词后通知所有实例重新加载
func (h *AdminHandler) ReloadSensitiveWords(c *gin.Context) {
	type req struct {
		Add    []string `json:"add"`
		Remove []string `json:"remove"`
	}
	var r req
	// 请求体可以为空
	if c.Request.ContentLength != 0 && !bindJSON(c, &r) {
		return
	}
	ctx := c.Request.Context()

	if err := redis.AddSensitiveWords(ctx, r.Add...); err != nil {
		response.FromError(c, apperrors.Unavailable("敏感词存储不可用", err))
		return
	}
	if err := redis.RemoveSensitiveWords(ctx, r.Remove...); err != nil {
		response.FromError(c, apperrors.Unavailable("敏感词存储不可用", err))
		return
	}
	if err := h.filter.Reload(ctx); err != nil {
		response.FromError(c, apperrors.Unavailable("敏感词加载失败", err))
		return
	}
	if err := redis.PublishSensitiveReload(ctx); err != nil {
		// 本实例已生效，其他实例等下次重载
		logger.Warn("发布敏感词重载通知失败", zap.Error(err))
	}

	logger.Info("敏感词已重载", zap.Int("added", len(r.Add)), zap.Int("removed", len(r.Remove)))
	response.SuccessWithMessage(c, "敏感词已重载", nil)
}
