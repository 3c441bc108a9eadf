package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tutordesk/internal/dto"
	"tutordesk/internal/service"
	"tutordesk/pkg/response"
)

// AccessHandler 访问口令 HTTP 处理器
type AccessHandler struct {
	accessSvc service.AccessService
}

// NewAccessHandler 创建 AccessHandler
func NewAccessHandler(accessSvc service.AccessService) *AccessHandler {
	return &AccessHandler{accessSvc: accessSvc}
}

// VerifyAccess 校验访问口令
// POST /api/v1/verify-access
func (h *AccessHandler) VerifyAccess(c *gin.Context) {
	var req dto.VerifyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.accessSvc.Verify(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccessDenied):
			response.ErrorWithData(c, http.StatusUnauthorized, 10101, "访问口令错误", result)
		case errors.Is(err, service.ErrAccessLocked):
			response.ErrorWithData(c, http.StatusTooManyRequests, 10102, "尝试次数过多，请稍后再试", result)
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Logout 注销当前 Token
// POST /api/v1/logout
func (h *AccessHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.accessSvc.Logout(c.Request.Context(), claims); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
