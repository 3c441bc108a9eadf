package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tutordesk/internal/dto"
	"tutordesk/internal/service"
	"tutordesk/pkg/response"
)

// TimetableHandler 时间表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// ListAll 获取全部时间表条目
// GET /api/v1/timetable/all
func (h *TimetableHandler) ListAll(c *gin.Context) {
	entries, err := h.timetableSvc.ListAll(c.Request.Context())
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OKList(c, entries, len(entries))
}

// ListByTutor 获取某导师的时间表条目
// GET /api/v1/timetable/tutor/:id
func (h *TimetableHandler) ListByTutor(c *gin.Context) {
	entries, err := h.timetableSvc.ListByTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OKList(c, entries, len(entries))
}

// CreateEntry 创建时间表条目
// POST /api/v1/timetable/entries
func (h *TimetableHandler) CreateEntry(c *gin.Context) {
	var req dto.CreateTimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entry, err := h.timetableSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.Created(c, entry)
}

// UpdateEntry 更新时间表条目（乐观锁）
// PUT /api/v1/timetable/entries/:id
func (h *TimetableHandler) UpdateEntry(c *gin.Context) {
	var req dto.UpdateTimetableEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entry, err := h.timetableSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteEntry 删除时间表条目
// DELETE /api/v1/timetable/entries/:id
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.timetableSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// Grid 获取 星期 × 小时 网格
// GET /api/v1/timetable/grid?tutor_id=&min_hour=&max_hour=
func (h *TimetableHandler) Grid(c *gin.Context) {
	var req dto.GridRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	grid, err := h.timetableSvc.Grid(c.Request.Context(), &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, grid)
}

// Import 从上游地址导入条目
// POST /api/v1/timetable/import
func (h *TimetableHandler) Import(c *gin.Context) {
	var req dto.ImportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.Import(c.Request.Context(), &req)
	if err != nil {
		h.handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// handleTimetableError 统一处理时间表模块业务错误
func (h *TimetableHandler) handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTutorNotFound):
		response.NotFound(c, 20001, "导师不存在")
	case errors.Is(err, service.ErrTimetableEntryNotFound):
		response.NotFound(c, 21001, "时间表条目不存在")
	case errors.Is(err, service.ErrTimetableInvalidSpan):
		response.BadRequest(c, 21002, "结束时间必须晚于开始时间")
	case errors.Is(err, service.ErrTimetableInvalidRange):
		response.BadRequest(c, 21003, "小时区间无效")
	case errors.Is(err, service.ErrTimetableVersionConflict):
		response.Conflict(c, 21004, "时间表条目已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrImportFetchFailed):
		response.Error(c, http.StatusBadGateway, 21101, "获取上游时间表失败")
	case errors.Is(err, service.ErrImportTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 21102, "上游时间表超过大小限制")
	case errors.Is(err, service.ErrImportParseFailed):
		response.Error(c, http.StatusUnprocessableEntity, 21103, "上游时间表解析失败")
	case errors.Is(err, service.ErrImportTutorRequired):
		response.BadRequest(c, 21104, "iCalendar 导入需要指定 tutor_id")
	default:
		response.InternalError(c)
	}
}
