package dto

// CreateTutorRequest 创建导师请求
type CreateTutorRequest struct {
	Name  string `json:"name" binding:"required,notblank,max=100"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
}

// UpdateTutorRequest 更新导师请求
type UpdateTutorRequest struct {
	Name     *string `json:"name" binding:"omitempty,notblank,max=100"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	IsActive *bool   `json:"is_active"`
}

// TutorListRequest 导师列表查询参数
type TutorListRequest struct {
	ActiveOnly bool `form:"active_only"`
}

// TutorResponse 导师响应
type TutorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}
