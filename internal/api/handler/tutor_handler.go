package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tutordesk/internal/dto"
	"tutordesk/internal/service"
	"tutordesk/pkg/response"
)

// TutorHandler 导师模块 HTTP 处理器
type TutorHandler struct {
	tutorSvc service.TutorService
}

// NewTutorHandler 创建 TutorHandler
func NewTutorHandler(tutorSvc service.TutorService) *TutorHandler {
	return &TutorHandler{tutorSvc: tutorSvc}
}

// ListTutors 获取导师列表
// GET /api/v1/tutors
func (h *TutorHandler) ListTutors(c *gin.Context) {
	var req dto.TutorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tutors, err := h.tutorSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, tutors, len(tutors))
}

// GetTutor 获取导师详情
// GET /api/v1/tutors/:id
func (h *TutorHandler) GetTutor(c *gin.Context) {
	tutor, err := h.tutorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTutorError(c, err)
		return
	}

	response.OK(c, tutor)
}

// CreateTutor 创建导师
// POST /api/v1/tutors
func (h *TutorHandler) CreateTutor(c *gin.Context) {
	var req dto.CreateTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tutor, err := h.tutorSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleTutorError(c, err)
		return
	}

	response.Created(c, tutor)
}

// UpdateTutor 更新导师
// PUT /api/v1/tutors/:id
func (h *TutorHandler) UpdateTutor(c *gin.Context) {
	var req dto.UpdateTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tutor, err := h.tutorSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleTutorError(c, err)
		return
	}

	response.OK(c, tutor)
}

// DeleteTutor 删除导师
// DELETE /api/v1/tutors/:id
func (h *TutorHandler) DeleteTutor(c *gin.Context) {
	if err := h.tutorSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleTutorError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleTutorError 统一处理导师模块业务错误
func (h *TutorHandler) handleTutorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTutorNotFound):
		response.NotFound(c, 20001, "导师不存在")
	default:
		response.InternalError(c)
	}
}
