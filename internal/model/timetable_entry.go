package model

import "tutordesk/internal/scheduling"

// TimetableEntry 时间表条目 — 对应 timetable_entries
type TimetableEntry struct {
	TimetableEntryID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_entry_id"`
	TutorID            string `gorm:"type:uuid;not null"                             json:"tutor_id"`
	DayOfWeek          int    `gorm:"type:smallint;not null"                         json:"day_of_week"` // 0-6，0 = 周一
	StartTime          string `gorm:"type:varchar(5);not null"                       json:"start_time"`  // HH:MM
	EndTime            string `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Subject            string `gorm:"type:varchar(100);not null;default:''"          json:"subject"`
	ActiveStudentCount *int   `gorm:"type:int"                                       json:"active_student_count,omitempty"`
	VersionedModel

	// 关联
	Tutor *Tutor `gorm:"foreignKey:TutorID;references:TutorID" json:"tutor,omitempty"`
}

// TableName 指定表名
func (TimetableEntry) TableName() string { return "timetable_entries" }

// View 转换为投影使用的只读视图
func (e *TimetableEntry) View() scheduling.TimetableEntry {
	day := e.DayOfWeek
	v := scheduling.TimetableEntry{
		ID:                 e.TimetableEntryID,
		TutorID:            e.TutorID,
		DayOfWeek:          &day,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		Subject:            e.Subject,
		ActiveStudentCount: e.ActiveStudentCount,
	}
	if e.Tutor != nil {
		v.TutorName = e.Tutor.Name
	}
	return v
}
