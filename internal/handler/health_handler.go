package handler

import (
	"context"
	"net/http"
	"time"

	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck 依赖健康检查函数
type HealthCheck func(ctx context.Context) error

// HealthHandler 健康检查
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler checks 的键为依赖名称，例如 db / redis
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 任一依赖不可用时返回503
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{
		"status": status,
		"deps":   deps,
		"time":   time.Now().Format(time.RFC3339),
	}
	if status != "ok" {
		c.JSON(http.StatusServiceUnavailable, response.Response{Code: "UNAVAILABLE", Message: "degraded", Data: body})
		return
	}
	response.Success(c, body)
}
