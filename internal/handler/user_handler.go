package handler

import (
	"oasis/internal/service"
	apperrors "oasis/pkg/errors"
	"oasis/pkg/jwt"
	"oasis/pkg/redis"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
	verify  *service.VerifyService
}

func NewUserHandler(s *service.UserService, verify *service.VerifyService) *UserHandler {
	return &UserHandler{service: s, verify: verify}
}

// SendVerifyCode 发送短信验证码
func (h *UserHandler) SendVerifyCode(c *gin.Context) {
	var r service.VerifyCodeInput
	if !bindJSON(c, &r) {
		return
	}
	if err := h.verify.Send(c.Request.Context(), r); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "验证码已发送", nil)
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	var r service.RegisterInput
	if !bindJSON(c, &r) {
		return
	}
	res, err := h.service.Register(c.Request.Context(), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, res)
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	var r service.LoginInput
	if !bindJSON(c, &r) {
		return
	}
	res, err := h.service.Login(c.Request.Context(), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "登录成功", res)
}

// GetProfile 获取自己的资料（需要JWT认证）
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.service.Profile(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 修改自己的资料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var r service.ProfilePatch
	if !bindJSON(c, &r) {
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), jwt.GetUserID(c), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// Retrieve 查看其他用户
func (h *UserHandler) Retrieve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.Retrieve(c.Request.Context(), jwt.GetUserID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword 凭旧密码修改密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	type req struct {
		Old string `json:"pwd_old" binding:"required"`
		New string `json:"pwd_new" binding:"required"`
	}
	var r req
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), jwt.GetUserID(c), r.Old, r.New); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已修改", nil)
}

// ResetPassword 凭验证码找回密码
func (h *UserHandler) ResetPassword(c *gin.Context) {
	type req struct {
		Tel      string `json:"tel" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var r req
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), r.Tel, r.Code, r.Password); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已重置", nil)
}

// ChangeTel 凭新手机号的验证码换绑手机
func (h *UserHandler) ChangeTel(c *gin.Context) {
	type req struct {
		Tel  string `json:"tel" binding:"required"`
		Code string `json:"code" binding:"required"`
	}
	var r req
	if !bindJSON(c, &r) {
		return
	}
	if err := h.service.ChangeTel(c.Request.Context(), jwt.GetUserID(c), r.Tel, r.Code); err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "手机号已修改", nil)
}

// Exist 用户名或手机号是否已注册（无需认证）
func (h *UserHandler) Exist(c *gin.Context) {
	var r struct {
		Username string `json:"username" binding:"required"`
	}
	if !bindJSON(c, &r) {
		return
	}
	exists, err := h.service.Exists(c.Request.Context(), r.Username)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"exists": exists})
}

// Online 当前在线的用户ID
func (h *UserHandler) Online(c *gin.Context) {
	ids, err := redis.GetOnlineUserIDs(c.Request.Context())
	if err != nil {
		response.FromError(c, apperrors.Unavailable("在线状态不可用", err))
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	response.Success(c, gin.H{"online_count": len(ids), "user_ids": ids})
}
