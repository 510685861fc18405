package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// FollowHandler 关注接口
type FollowHandler struct {
	service *service.FollowService
}

func NewFollowHandler(s *service.FollowService) *FollowHandler {
	return &FollowHandler{service: s}
}

func (h *FollowHandler) Follow(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := h.service.Follow(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "关注成功", nil)
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := h.service.Unfollow(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已取消关注", nil)
}

// Check 是否已关注
func (h *FollowHandler) Check(c *gin.Context) {
	id, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	following, err := h.service.IsFollowing(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"following": following})
}

// Following 我关注的人
func (h *FollowHandler) Following(c *gin.Context) {
	page := pageOf(c)
	follows, total, err := h.service.Following(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, follows, page, total)
}

// Fans 我的粉丝
func (h *FollowHandler) Fans(c *gin.Context) {
	page := pageOf(c)
	follows, total, err := h.service.Fans(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, follows, page, total)
}
