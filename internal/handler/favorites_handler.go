package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

// FavoritesHandler 收藏夹接口
type FavoritesHandler struct {
	service *service.FavoritesService
}

func NewFavoritesHandler(s *service.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{service: s}
}

func (h *FavoritesHandler) Create(c *gin.Context) {
	var r service.FavoritesInput
	if !bindJSON(c, &r) {
		return
	}
	fav, err := h.service.Create(c.Request.Context(), jwt.GetUserID(c), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, fav)
}

// List 收藏夹列表；带 user_id 时只列出该用户的公开收藏夹
func (h *FavoritesHandler) List(c *gin.Context) {
	ownerID, ok := queryID(c, "user_id")
	if !ok {
		return
	}
	page := pageOf(c)
	list, total, err := h.service.List(c.Request.Context(), jwt.GetUserID(c), ownerID, page)
	if err != nil {
		response.FromError(c, err)
		return
	}
	writePage(c, list, page, total)
}

func (h *FavoritesHandler) Retrieve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.Retrieve(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *FavoritesHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var r service.FavoritesPatch
	if !bindJSON(c, &r) {
		return
	}
	fav, err := h.service.Update(c.Request.Context(), jwt.GetUserID(c), id, r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, fav)
}

func (h *FavoritesHandler) Delete(c *gin.Context) {
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

// Operate 收藏 / 取消收藏帖子
func (h *FavoritesHandler) Operate(c *gin.Context) {
	var r service.FavoritesOperation
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.Operate(c.Request.Context(), jwt.GetUserID(c), r); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}
