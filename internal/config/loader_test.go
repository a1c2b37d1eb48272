package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Run("已设置的变量直接替换", func(t *testing.T) {
		t.Setenv("PARITHERA_TEST_HOST", "db.internal")

		assert.Equal(t, "host: db.internal", expandEnv("host: ${PARITHERA_TEST_HOST}"))
	})

	t.Run("未设置时使用默认值", func(t *testing.T) {
		assert.Equal(t, "port: 5432", expandEnv("port: ${PARITHERA_TEST_UNSET_PORT:5432}"))
	})

	t.Run("已设置的变量覆盖默认值", func(t *testing.T) {
		t.Setenv("PARITHERA_TEST_PORT", "6543")

		assert.Equal(t, "port: 6543", expandEnv("port: ${PARITHERA_TEST_PORT:5432}"))
	})

	t.Run("空默认值替换为空串", func(t *testing.T) {
		assert.Equal(t, "password: ", expandEnv("password: ${PARITHERA_TEST_UNSET_PASSWORD:}"))
	})

	t.Run("未设置且无默认值的占位符保持原样", func(t *testing.T) {
		assert.Equal(t, "key: ${PARITHERA_TEST_UNSET_KEY}", expandEnv("key: ${PARITHERA_TEST_UNSET_KEY}"))
	})
}
