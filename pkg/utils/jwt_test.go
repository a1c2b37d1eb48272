package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", "parithera")

	t.Run("生成并解析双 Token", func(t *testing.T) {
		pair, err := m.GenerateTokenPair("org-1", "user-1", "user", time.Hour, 24*time.Hour)
		require.NoError(t, err)

		access, err := m.ParseToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "org-1", access.OrganizationID)
		assert.Equal(t, "user-1", access.UserID)
		assert.Equal(t, "user", access.Role)
		assert.Equal(t, "access", access.Type)
		assert.Equal(t, "parithera", access.Issuer)

		refresh, err := m.ParseToken(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, "refresh", refresh.Type)
	})

	t.Run("过期 Token 返回专用错误", func(t *testing.T) {
		token, err := m.GenerateToken("org-1", "user-1", "user", "access", -time.Minute)
		require.NoError(t, err)

		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("错误密钥签发的 Token 拒绝", func(t *testing.T) {
		other := NewJWTManager("other-secret", "parithera")
		token, err := other.GenerateToken("org-1", "user-1", "user", "access", time.Hour)
		require.NoError(t, err)

		_, err = m.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("非 Token 字符串拒绝", func(t *testing.T) {
		_, err := m.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
