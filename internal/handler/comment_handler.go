package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// CommentHandler 评论接口
type CommentHandler struct {
	service *service.CommentService
}

func NewCommentHandler(s *service.CommentService) *CommentHandler {
	return &CommentHandler{service: s}
}

func (h *CommentHandler) Create(c *gin.Context) {
	var r service.CommentInput
	if !bindJSON(c, &r) {
		return
	}
	comment, err := h.service.Create(c.Request.Context(), jwt.GetUserID(c), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, comment)
}

// List 帖子下的评论，post_id 必填
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := queryID(c, "post_id")
	if !ok {
		return
	}
	if postID == 0 {
		response.BadField(c, "post_id", "post_id is required")
		return
	}
	page := pageOf(c)
	comments, total, err := h.service.List(c.Request.Context(), jwt.GetUserID(c), postID, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, comments, page, total)
}

// Update 评论不可修改
func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	response.FromError(c, h.service.Update(c.Request.Context(), jwt.GetUserID(c), id))
}

func (h *CommentHandler) Delete(c *gin.Context) {
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

func (h *CommentHandler) Like(c *gin.Context) {
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

func (h *CommentHandler) Unlike(c *gin.Context) {
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

func (h *CommentHandler) Likers(c *gin.Context) {
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
