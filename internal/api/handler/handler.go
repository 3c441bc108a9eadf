package handler

import "tutordesk/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Access    *AccessHandler
	Tutor     *TutorHandler
	Timetable *TimetableHandler
	Scheduler *SchedulerHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Access:    NewAccessHandler(svc.Access),
		Tutor:     NewTutorHandler(svc.Tutor),
		Timetable: NewTimetableHandler(svc.Timetable),
		Scheduler: NewSchedulerHandler(svc.Scheduler),
		Export:    NewExportHandler(svc.Export),
	}
}
