package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友关系接口
type FriendHandler struct {
	service *service.FriendService
}

func NewFriendHandler(s *service.FriendService) *FriendHandler {
	return &FriendHandler{service: s}
}

// Request 发起好友申请
func (h *FriendHandler) Request(c *gin.Context) {
	var r service.FriendRequestInput
	if !bindJSON(c, &r) {
		return
	}
	rel, err := h.service.Request(c.Request.Context(), jwt.GetUserID(c), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, rel)
}

// List 好友列表（带在线状态）
func (h *FriendHandler) List(c *gin.Context) {
	page := pageOf(c)
	friends, total, err := h.service.Friends(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, friends, page, total)
}

// Pending 新朋友 / 待我处理 / 待对方处理
func (h *FriendHandler) Pending(c *gin.Context) {
	overview, err := h.service.Pending(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, overview)
}

// Blacklist 黑名单
func (h *FriendHandler) Blacklist(c *gin.Context) {
	page := pageOf(c)
	rels, total, err := h.service.Blacklist(c.Request.Context(), jwt.GetUserID(c), page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, rels, page, total)
}

// Retrieve 查看一条关系
func (h *FriendHandler) Retrieve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rel, err := h.service.Retrieve(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rel)
}

// Update 备注 / 拉黑 / 不看帖子 / 同意或拒绝，一次只能一项
func (h *FriendHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var r service.FriendPatch
	if !bindJSON(c, &r) {
		return
	}
	rel, err := h.service.Update(c.Request.Context(), jwt.GetUserID(c), id, r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, rel)
}

// Remove 删除好友
func (h *FriendHandler) Remove(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Remove(c.Request.Context(), jwt.GetUserID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已删除", nil)
}
