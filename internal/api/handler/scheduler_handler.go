package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tutordesk/internal/dto"
	"tutordesk/internal/scheduling"
	"tutordesk/internal/service"
	"tutordesk/pkg/response"
)

// SchedulerHandler 周排课会话 HTTP 处理器
type SchedulerHandler struct {
	schedulerSvc service.SchedulerService
}

// NewSchedulerHandler 创建 SchedulerHandler
func NewSchedulerHandler(schedulerSvc service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{schedulerSvc: schedulerSvc}
}

// CreateSession 新建排课会话
// POST /api/v1/scheduler/sessions
func (h *SchedulerHandler) CreateSession(c *gin.Context) {
	sess, err := h.schedulerSvc.CreateSession(c.Request.Context())
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}

	response.Created(c, sess)
}

// GetSession 获取会话整周快照
// GET /api/v1/scheduler/sessions/:id
func (h *SchedulerHandler) GetSession(c *gin.Context) {
	sess, err := h.schedulerSvc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}

	response.OK(c, sess)
}

// DayEntries 获取某一天的条目
// GET /api/v1/scheduler/sessions/:id/days/:day
func (h *SchedulerHandler) DayEntries(c *gin.Context) {
	day, err := h.schedulerSvc.DayEntries(c.Request.Context(), c.Param("id"), c.Param("day"))
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}

	response.OK(c, day)
}

// AddEntry 向会话添加课程，导师同一时间已有课时返回 409
// POST /api/v1/scheduler/sessions/:id/entries
func (h *SchedulerHandler) AddEntry(c *gin.Context) {
	var req dto.AddScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 22003, "参数校验失败", dto.ValidationDetails(err))
		return
	}

	result, err := h.schedulerSvc.AddEntry(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}

	response.Created(c, result)
}

// DeleteSession 删除会话
// DELETE /api/v1/scheduler/sessions/:id
func (h *SchedulerHandler) DeleteSession(c *gin.Context) {
	if err := h.schedulerSvc.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.handleSchedulerError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSchedulerError 统一处理排课会话模块业务错误
func (h *SchedulerHandler) handleSchedulerError(c *gin.Context, err error) {
	var (
		clash   *scheduling.ClashError
		invalid *scheduling.ValidationError
	)
	switch {
	case errors.As(err, &clash):
		response.ErrorWithData(c, http.StatusConflict, 22004, clash.Error(), dto.ClashDetails{
			Day:      string(clash.Day),
			Existing: clash.Existing,
		})
	case errors.As(err, &invalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 22003, "参数校验失败", invalid.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 22001, "排课会话不存在或已过期")
	case errors.Is(err, service.ErrSessionLimit):
		response.TooManyRequests(c, 22002, "排课会话数量已达上限")
	default:
		response.InternalError(c)
	}
}
