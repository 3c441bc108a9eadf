package dto

import (
	"fmt"

	"tutordesk/internal/scheduling"
)

// ── 时间表条目 ──

// CreateTimetableEntryRequest 创建条目请求
type CreateTimetableEntryRequest struct {
	TutorID            string `json:"tutor_id" binding:"required,uuid"`
	DayOfWeek          *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime          string `json:"start_time" binding:"required,hhmm"`
	EndTime            string `json:"end_time" binding:"required,hhmm"`
	Subject            string `json:"subject" binding:"omitempty,max=100"`
	ActiveStudentCount *int   `json:"active_student_count" binding:"omitempty,min=0"`
}

// Validate 结束时间须晚于开始时间
func (r *CreateTimetableEntryRequest) Validate() error {
	return ValidateSpan(r.StartTime, r.EndTime)
}

// UpdateTimetableEntryRequest 更新条目请求（version 用于乐观锁）
type UpdateTimetableEntryRequest struct {
	TutorID            *string `json:"tutor_id" binding:"omitempty,uuid"`
	DayOfWeek          *int    `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	StartTime          *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime            *string `json:"end_time" binding:"omitempty,hhmm"`
	Subject            *string `json:"subject" binding:"omitempty,max=100"`
	ActiveStudentCount *int    `json:"active_student_count" binding:"omitempty,min=0"`
	Version            int     `json:"version" binding:"required,min=1"`
}

// ValidateSpan 校验 HH:MM 起止时间，结束须晚于开始
func ValidateSpan(start, end string) error {
	s, err := scheduling.ParseClock(start)
	if err != nil {
		return err
	}
	e, err := scheduling.ParseClock(end)
	if err != nil {
		return err
	}
	if !s.Before(e) {
		return fmt.Errorf("结束时间 %s 必须晚于开始时间 %s", end, start)
	}
	return nil
}

// TimetableEntryResponse 条目响应（字段名与前端约定一致）
type TimetableEntryResponse struct {
	ID                 string `json:"id"`
	TutorID            string `json:"tutor_id"`
	TutorName          string `json:"tutor_name"`
	DayOfWeek          int    `json:"day_of_week"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Subject            string `json:"subject"`
	ActiveStudentCount *int   `json:"active_student_count,omitempty"`
	Version            int    `json:"version"`
}

// ── 网格 ──

// GridRequest 网格查询参数
type GridRequest struct {
	TutorID string `form:"tutor_id" binding:"omitempty,uuid"`
	MinHour *int   `form:"min_hour" binding:"omitempty,min=0,max=23"`
	MaxHour *int   `form:"max_hour" binding:"omitempty,min=0,max=23"`
}

// GridEntry 单元格中的条目
type GridEntry struct {
	ID          string `json:"id"`
	TutorID     string `json:"tutor_id,omitempty"`
	Tutor       string `json:"tutor"`
	Subject     string `json:"subject"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ColorIndex  int    `json:"color_index"`
	HasStudents bool   `json:"has_students"`
}

// GridRow 一个小时的一行，Cells 下标为 day_of_week
type GridRow struct {
	Hour  int           `json:"hour"`
	Label string        `json:"label"`
	Cells [][]GridEntry `json:"cells"`
}

// GridResponse 星期 × 小时 网格
type GridResponse struct {
	Days     []string  `json:"days"`
	MinHour  int       `json:"min_hour"`
	MaxHour  int       `json:"max_hour"`
	Rows     []GridRow `json:"rows"`
	Total    int       `json:"total"`
	Dropped  int       `json:"dropped"`
	Unplaced int       `json:"unplaced"`
}

// ── 上游导入 ──

// ImportTimetableRequest 从上游 REST 地址导入条目
type ImportTimetableRequest struct {
	URL     string `json:"url" binding:"required,url"`
	TutorID string `json:"tutor_id" binding:"omitempty,uuid"`
}

// ImportTimetableResponse 导入结果
type ImportTimetableResponse struct {
	Fetched  int `json:"fetched"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
