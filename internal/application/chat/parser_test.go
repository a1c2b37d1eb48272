package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "parithera-api/pkg/errors"
)

func TestParseFollowups(t *testing.T) {
	t.Run("正常拆分正文与追问", func(t *testing.T) {
		body, followups := ParseFollowups("UMAP projects cells into 2D.\n--FOLLOWUPS--\nHow do I color by gene?\nHow do I export coordinates?\n")

		assert.Equal(t, "UMAP projects cells into 2D.\n", body)
		assert.Equal(t, []string{"How do I color by gene?", "How do I export coordinates?"}, followups)
	})

	t.Run("分隔标记缺失时追问为空", func(t *testing.T) {
		body, followups := ParseFollowups("Just an answer without marker")

		assert.Equal(t, "Just an answer without marker", body)
		assert.Empty(t, followups)
		assert.NotNil(t, followups)
	})

	t.Run("正文为空时忽略追问", func(t *testing.T) {
		body, followups := ParseFollowups("--FOLLOWUPS--\nQuestion one\nQuestion two")

		assert.Equal(t, "", body)
		assert.Empty(t, followups)
	})

	t.Run("追问列表过滤空行", func(t *testing.T) {
		_, followups := ParseFollowups("answer\n--FOLLOWUPS--\n\n  \nOnly question\n\n")

		assert.Equal(t, []string{"Only question"}, followups)
	})

	t.Run("追问行去除首尾空白", func(t *testing.T) {
		_, followups := ParseFollowups("answer\n--FOLLOWUPS--\n  padded question  ")

		assert.Equal(t, []string{"padded question"}, followups)
	})
}

func TestExtractCodeBlock(t *testing.T) {
	t.Run("提取第一个 python 代码块", func(t *testing.T) {
		raw := "Here is the script:\n```python\nimport scanpy as sc\nsc.pl.umap(adata)\n```\nand some trailing text"

		code, err := ExtractCodeBlock(raw, "python")
		require.NoError(t, err)
		assert.Equal(t, "\nimport scanpy as sc\nsc.pl.umap(adata)\n", code)
	})

	t.Run("缺少代码块返回错误", func(t *testing.T) {
		_, err := ExtractCodeBlock("no code here", "python")

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeMalformedScriptResponse, apperrors.AsAppError(err).Code)
	})

	t.Run("未闭合的代码块返回错误", func(t *testing.T) {
		_, err := ExtractCodeBlock("```python\nimport scanpy", "python")

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeMalformedScriptResponse, apperrors.AsAppError(err).Code)
	})

	t.Run("只匹配指定语言标记", func(t *testing.T) {
		_, err := ExtractCodeBlock("```r\nlibrary(Seurat)\n```", "python")

		require.Error(t, err)
	})
}
