package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/api/middleware"
	"github.com/Manish-tomar-aligarh/ai-hiring-platform/internal/database"
)

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

// callerFromContext 返回当前用户 ID 与角色；未认证时写入 401。
func callerFromContext(c *gin.Context) (uint, database.Role, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return 0, "", false
	}
	return userID, middleware.RoleFromContext(c), true
}

// idParam 解析路径参数中的正整数 ID；失败时写入 400。
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// splitCSV 拆分逗号分隔的查询参数并丢弃空项。
func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
