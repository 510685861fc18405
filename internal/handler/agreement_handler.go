package handler

import (
	"oasis/internal/service"
	"oasis/pkg/jwt"
	"oasis/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgreementHandler struct {
	service *service.AgreementService
}

func NewAgreementHandler(s *service.AgreementService) *AgreementHandler {
	return &AgreementHandler{service: s}
}

// Set 授权或撤回协议
func (h *AgreementHandler) Set(c *gin.Context) {
	var r service.AgreementInput
	if !bindJSON(c, &r) {
		return
	}
	a, err := h.service.Set(c.Request.Context(), jwt.GetUserID(c), r)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithMessage(c, "设置成功", a)
}

// Check 是否已授权 ?version=
func (h *AgreementHandler) Check(c *gin.Context) {
	agreed, err := h.service.Check(c.Request.Context(), jwt.GetUserID(c), c.Query("version"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"is_agree": agreed})
}
