package prompts

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryChatTemplate(t *testing.T) {
	r := NewRegistry()

	t.Run("加载全部内置模板", func(t *testing.T) {
		for _, id := range []PromptID{
			PromptIntentClassifierV1,
			PromptRAGAnswerV1,
			PromptScriptClassifierV1,
			PromptScriptAuthorV1,
		} {
			tpl, err := r.ChatTemplate(id)

			require.NoError(t, err, id)
			assert.NotNil(t, tpl, id)
		}
	})

	t.Run("意图分类模板渲染用户请求", func(t *testing.T) {
		tpl, err := r.ChatTemplate(PromptIntentClassifierV1)
		require.NoError(t, err)

		messages, err := tpl.Format(context.Background(), map[string]any{"request": "please run a umap"})
		require.NoError(t, err)
		require.Len(t, messages, 2)

		assert.Equal(t, schema.System, messages[0].Role)
		assert.Equal(t, schema.User, messages[1].Role)
		assert.Contains(t, messages[1].Content, "please run a umap")
	})

	t.Run("RAG 模板渲染请求与检索上下文", func(t *testing.T) {
		tpl, err := r.ChatTemplate(PromptRAGAnswerV1)
		require.NoError(t, err)

		messages, err := tpl.Format(context.Background(), map[string]any{
			"request": "what is leiden clustering",
			"context": "Reference excerpts:\n- leiden is a community detection algorithm\n",
		})
		require.NoError(t, err)
		require.Len(t, messages, 2)
	})

	t.Run("未知模板标识返回错误", func(t *testing.T) {
		_, err := r.ChatTemplate(PromptID("nonexistent"))

		assert.Error(t, err)
	})
}

func TestHasFollowups(t *testing.T) {
	assert.True(t, HasFollowups(PromptRAGAnswerV1))
	assert.True(t, HasFollowups(PromptScriptAuthorV1))
	assert.False(t, HasFollowups(PromptIntentClassifierV1))
	assert.False(t, HasFollowups(PromptScriptClassifierV1))
}
