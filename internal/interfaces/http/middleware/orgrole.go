// Package middleware 提供 HTTP 中间件
package middleware

import (
	"net/http"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireOrgRole 组织角色检查中间件
//
// 从路径参数 :oid 解析组织，校验当前用户在该组织中的角色
// 满足最低要求，角色不足或非成员返回 403。
func RequireOrgRole(memberships repository.MembershipRepository, required entity.MemberRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("oid")
		if orgID == "" {
			abortForbidden(c, "missing organization in path")
			return
		}

		userID := c.GetString("user_id")
		if userID == "" {
			abortForbidden(c, "missing user in context")
			return
		}

		ok, err := memberships.HasRequiredRole(c.Request.Context(), orgID, userID, required)
		if err != nil {
			logger.Error(c.Request.Context(), "failed to check organization role", err,
				"organization_id", orgID,
				"user_id", userID,
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":     500,
				"message":  "failed to check organization role",
				"trace_id": c.GetString("trace_id"),
			})
			return
		}
		if !ok {
			abortForbidden(c, "insufficient role in organization")
			return
		}

		c.Next()
	}
}

// abortForbidden 终止请求并返回 403
func abortForbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"code":     403,
		"message":  msg,
		"trace_id": c.GetString("trace_id"),
	})
}
