package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

type RecommendHandler struct {
	service *service.RecommendService
}

func NewRecommendHandler(s *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{service: s}
}

// Posts 最近一次推荐的帖子
func (h *RecommendHandler) Posts(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.service.Posts(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, items, page, total)
}

// Publish 发布某天的推荐（管理接口）
func (h *RecommendHandler) Publish(c *gin.Context) {
	var r service.RecommendInput
	if !bindJSON(c, &r) {
		return
	}
	rec, err := h.service.Publish(c.Request.Context(), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, rec)
}
