package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("错误码映射 HTTP 状态", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, New(CodeProjectNotFound, "x").HTTPStatus)
		assert.Equal(t, http.StatusForbidden, New(CodeNotAuthorized, "x").HTTPStatus)
		assert.Equal(t, http.StatusUnauthorized, New(CodeTokenExpired, "x").HTTPStatus)
		assert.Equal(t, http.StatusTooManyRequests, New(CodeTooManyRequests, "x").HTTPStatus)
		assert.Equal(t, http.StatusInternalServerError, New(CodeDispatchError, "x").HTTPStatus)
		assert.Equal(t, http.StatusInternalServerError, New(CodeAnalysisTimeout, "x").HTTPStatus)
	})

	t.Run("WithDetail 不修改原错误", func(t *testing.T) {
		base := New(CodeUnknownScriptType, "unknown script type")
		detailed := base.WithDetail("classifier answered: weather")

		assert.Empty(t, base.Detail)
		assert.Equal(t, "classifier answered: weather", detailed.Detail)
		assert.Equal(t, base.Code, detailed.Code)
	})

	t.Run("Wrap 保留底层错误", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		wrapped := Wrap(cause, CodeDispatchError, "failed to publish dispatch message")

		assert.ErrorIs(t, stderrors.Unwrap(wrapped), cause)
		assert.Contains(t, wrapped.Error(), "connection refused")
	})

	t.Run("errors.Is 按错误码匹配", func(t *testing.T) {
		err := New(CodeAnalysisTimeout, "script failed to execute").WithDetail("analysis a1")

		assert.ErrorIs(t, err, ErrAnalysisTimeout)
		assert.NotErrorIs(t, err, ErrDispatchError)
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("AppError 原样返回", func(t *testing.T) {
		orig := New(CodeProjectNotFound, "project not found")

		assert.Same(t, orig, AsAppError(orig))
	})

	t.Run("普通错误包装为 Unknown", func(t *testing.T) {
		appErr := AsAppError(stderrors.New("boom"))

		require.NotNil(t, appErr)
		assert.Equal(t, CodeUnknown, appErr.Code)
	})
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(New(CodeInvalidParam, "bad")))
	assert.False(t, IsAppError(stderrors.New("plain")))
}
