package handler

import (
	"github.com/gin-gonic/gin"

	"tutordesk/pkg/jwt"
	"tutordesk/pkg/response"
)

// ClaimsKey JWT 中间件注入声明所用的上下文键
const ClaimsKey = "claims"

// MustGetClaims 从 Gin 上下文中安全提取 JWT 声明。
// 中间件未注入时写入 401 响应并返回 false，调用方应直接 return。
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return claims, true
}
