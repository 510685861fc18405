package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// PostHandler 帖子接口
type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(s *service.PostService) *PostHandler {
	return &PostHandler{service: s}
}

func (h *PostHandler) Create(c *gin.Context) {
	var r service.PostInput
	if !bindJSON(c, &r) {
		return
	}
	post, err := h.service.Create(c.Request.Context(), jwt.GetUserID(c), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, post)
}

// Mine 我的帖子；带 user_id 时查看该用户对我可见的帖子
func (h *PostHandler) Mine(c *gin.Context) {
	authorID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	page := pageOf(c)
	posts, total, err := h.service.Mine(c.Request.Context(), jwt.GetUserID(c), authorID, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, posts, page, total)
}

// Story 好友动态
func (h *PostHandler) Story(c *gin.Context) {
	page := pageOf(c)
	posts, total, err := h.service.Story(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, posts, page, total)
}

// Feed 广场
func (h *PostHandler) Feed(c *gin.Context) {
	page := pageOf(c)
	posts, total, err := h.service.Feed(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, posts, page, total)
}

// Nearby 附近的帖子，按距离由近到远
func (h *PostHandler) Nearby(c *gin.Context) {
	var r service.NearbyInput
	if !bindJSON(c, &r) {
		return
	}
	page := pageOf(c)
	posts, total, err := h.service.Nearby(c.Request.Context(), jwt.GetUserID(c), r, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, posts, page, total)
}

func (h *PostHandler) Retrieve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.service.Retrieve(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var r service.PostPatch
	if !bindJSON(c, &r) {
		return
	}
	post, err := h.service.Update(c.Request.Context(), jwt.GetUserID(c), id, r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已删除", nil)
}

func (h *PostHandler) Like(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Like(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "点赞成功", nil)
}

func (h *PostHandler) Unlike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Unlike(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已取消点赞", nil)
}

// Likers 点赞用户列表
func (h *PostHandler) Likers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page := pageOf(c)
	users, total, err := h.service.Likers(c.Request.Context(), jwt.GetUserID(c), id, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, users, page, total)
}
