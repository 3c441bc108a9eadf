package dto

// VerifyAccessRequest 访问口令校验请求
type VerifyAccessRequest struct {
	Password string `json:"password" binding:"required"`
}

// VerifyAccessResponse 校验结果；authorized 为 true 时附带访问令牌
type VerifyAccessResponse struct {
	Authorized  bool   `json:"authorized"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Remaining   int    `json:"remaining_attempts"`
}
