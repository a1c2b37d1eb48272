package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parithera-api/pkg/utils"
)

func newAuthTestRouter(cfg AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(cfg))
	r.GET("/v1/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"organization_id": c.GetString("organization_id"),
			"user_id":         c.GetString("user_id"),
			"role":            c.GetString("role"),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	cfg := AuthConfig{
		Secret:    "test-secret",
		Issuer:    "parithera",
		SkipPaths: DefaultSkipPaths,
		Enabled:   true,
	}
	manager := utils.NewJWTManager(cfg.Secret, cfg.Issuer)

	t.Run("缺少凭证返回 401", func(t *testing.T) {
		r := newAuthTestRouter(cfg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("合法 AccessToken 注入用户信息", func(t *testing.T) {
		token, err := manager.GenerateToken("org-1", "user-1", "user", "access", time.Hour)
		require.NoError(t, err)

		r := newAuthTestRouter(cfg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "org-1")
		assert.Contains(t, w.Body.String(), "user-1")
	})

	t.Run("RefreshToken 不能访问接口", func(t *testing.T) {
		token, err := manager.GenerateToken("org-1", "user-1", "user", "refresh", time.Hour)
		require.NoError(t, err)

		r := newAuthTestRouter(cfg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("格式错误的头返回 401", func(t *testing.T) {
		r := newAuthTestRouter(cfg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("跳过路径不校验凭证", func(t *testing.T) {
		r := newAuthTestRouter(cfg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("未启用时直接放行", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false
		r := newAuthTestRouter(disabled)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
