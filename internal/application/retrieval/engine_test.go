package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineDisabled(t *testing.T) {
	ctx := context.Background()

	t.Run("未配置向量存储时 Enabled 为假", func(t *testing.T) {
		assert.False(t, NewEngine(nil, nil, 0).Enabled())

		var nilEngine *Engine
		assert.False(t, nilEngine.Enabled())
	})

	t.Run("检索降级为空结果且记录原因", func(t *testing.T) {
		e := NewEngine(nil, nil, 0)

		out, err := e.Search(ctx, SearchInput{OrganizationID: "org-1", Query: "umap"})

		require.NoError(t, err)
		assert.Empty(t, out.Chunks)
		assert.Equal(t, ErrVectorDisabled.Error(), out.DisabledReason)
	})

	t.Run("索引直接失败", func(t *testing.T) {
		e := NewEngine(nil, nil, 0)

		_, err := e.Index(ctx, IndexInput{OrganizationID: "org-1", Source: "doc", Text: "content"})

		assert.ErrorIs(t, err, ErrVectorDisabled)
	})
}

func TestEngineSearchValidation(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(nil, nil, 0)

	_, err := e.Search(ctx, SearchInput{Query: "umap"})
	assert.Error(t, err)

	_, err = e.Search(ctx, SearchInput{OrganizationID: "org-1", Query: "   "})
	assert.Error(t, err)
}
