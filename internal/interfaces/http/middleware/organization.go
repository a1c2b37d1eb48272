// Package middleware 提供 HTTP 中间件
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// OrgContextKey 组织上下文 Key 类型
type OrgContextKey string

const (
	// OrganizationIDKey 组织 ID 上下文 Key
	OrganizationIDKey OrgContextKey = "organization_id"
	// UserIDKey 用户 ID 上下文 Key
	UserIDKey OrgContextKey = "user_id"
)

// Organization 组织上下文中间件
//
// 路径参数 :oid 指定请求作用的组织，必须与 JWT 中的组织一致
// 注入 request context 供仓储层使用。:oid 缺失时退回 JWT 中的组织。
func Organization() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("oid")
		if orgID == "" {
			orgID = c.GetString("organization_id")
		}

		if orgID != "" {
			c.Set("organization_id", orgID)

			ctx := context.WithValue(c.Request.Context(), OrganizationIDKey, orgID)

			if userID := c.GetString("user_id"); userID != "" {
				ctx = context.WithValue(ctx, UserIDKey, userID)
			}

			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// GetOrganizationID 从 context 中获取组织 ID
func GetOrganizationID(ctx context.Context) string {
	if v := ctx.Value(OrganizationIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserID 从 context 中获取用户 ID
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetOrganizationIDFromGin 从 Gin Context 中获取组织 ID
func GetOrganizationIDFromGin(c *gin.Context) string {
	return c.GetString("organization_id")
}

// GetUserIDFromGin 从 Gin Context 中获取用户 ID
func GetUserIDFromGin(c *gin.Context) string {
	return c.GetString("user_id")
}
