package model

// Tutor 导师表 — 对应 tutors
type Tutor struct {
	TutorID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"tutor_id"`
	Name     string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email    string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	IsActive bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Tutor) TableName() string { return "tutors" }
