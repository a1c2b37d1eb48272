package scripts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "parithera-api/pkg/errors"
)

func TestMatchLabel(t *testing.T) {
	t.Run("识别回答中的脚本标签", func(t *testing.T) {
		label, ok := MatchLabel("I would run parithera_umap for this request")

		require.True(t, ok)
		assert.Equal(t, ScriptUMAP, label)
	})

	t.Run("无标签时返回未命中", func(t *testing.T) {
		_, ok := MatchLabel("custom")

		assert.False(t, ok)
	})
}

func TestLibraryChoose(t *testing.T) {
	lib := NewLibrary()

	t.Run("预置脚本带脚本体与追问建议", func(t *testing.T) {
		script, err := lib.Choose(ScriptUMAP)

		require.NoError(t, err)
		assert.Equal(t, ScriptUMAP, script.Name)
		assert.NotEmpty(t, script.Body)
		assert.Len(t, script.Followups, 5)
	})

	t.Run("每个标签都能加载脚本体", func(t *testing.T) {
		for _, label := range Labels() {
			script, err := lib.Choose(label)

			require.NoError(t, err, label)
			assert.NotEmpty(t, script.Body, label)
			assert.NotEmpty(t, script.Followups, label)
		}
	})

	t.Run("未知标签返回错误", func(t *testing.T) {
		_, err := lib.Choose("weather forecast please")

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeUnknownScriptType, apperrors.AsAppError(err).Code)
	})

	t.Run("追问建议返回副本", func(t *testing.T) {
		first, err := lib.Choose(ScriptCluster)
		require.NoError(t, err)
		first.Followups[0] = "mutated"

		second, err := lib.Choose(ScriptCluster)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", second.Followups[0])
	})
}
