package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequirePasswordChanged 拦截仍持有初始密码的账号（cmd/admin 创建的管理员），
// 直到其调用 /auth/change-password。只看 access token 中的声明。
func RequirePasswordChanged() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(MustChangePasswordKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Password change required"})
			return
		}
		c.Next()
	}
}
