package dto

import "tutordesk/internal/scheduling"

// CreateSessionResponse 新建排课会话
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
}

// SessionResponse 会话全量快照，键为星期名
type SessionResponse struct {
	SessionID string                                `json:"session_id"`
	Days      map[string][]scheduling.ScheduleEntry `json:"days"`
	Total     int                                   `json:"total"`
	ExpiresAt string                                `json:"expires_at"`
}

// DayEntriesResponse 某一天的条目
type DayEntriesResponse struct {
	Day     string                     `json:"day"`
	Entries []scheduling.ScheduleEntry `json:"entries"`
}

// AddScheduleEntryRequest 向某一天添加课程
type AddScheduleEntryRequest struct {
	Day     string `json:"day" binding:"required,notblank"`
	Tutor   string `json:"tutor" binding:"required,notblank"`
	Subject string `json:"subject" binding:"required,notblank"`
	Time    string `json:"time" binding:"required,hhmm"`
}

// AddScheduleEntryResponse 添加成功后的当日条目
type AddScheduleEntryResponse struct {
	Accepted bool                       `json:"accepted"`
	Day      string                     `json:"day"`
	Entry    scheduling.ScheduleEntry   `json:"entry"`
	Entries  []scheduling.ScheduleEntry `json:"entries"`
}

// ClashDetails 冲突详情，随 409 一并返回
type ClashDetails struct {
	Day      string                   `json:"day"`
	Existing scheduling.ScheduleEntry `json:"existing"`
}
