package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByRunes(t *testing.T) {
	t.Run("空文本返回空", func(t *testing.T) {
		assert.Nil(t, splitByRunes("", 10, 2))
		assert.Nil(t, splitByRunes("   \n\t  ", 10, 2))
	})

	t.Run("短文本整体作为单个片段", func(t *testing.T) {
		out := splitByRunes("  short text  ", 100, 10)
		require.Len(t, out, 1)
		assert.Equal(t, "short text", out[0])
	})

	t.Run("长文本按窗口切片且相邻片段重叠", func(t *testing.T) {
		out := splitByRunes("abcdefghijklmnopqrst", 10, 2)

		require.Equal(t, []string{"abcdefghij", "ijklmnopqr", "qrst"}, out)
	})

	t.Run("重叠不小于窗口时退化为不重叠切片", func(t *testing.T) {
		out := splitByRunes("abcdefgh", 4, 4)

		require.Equal(t, []string{"abcd", "efgh"}, out)
	})

	t.Run("按字符而非字节计数", func(t *testing.T) {
		out := splitByRunes("基因表达矩阵", 4, 1)

		require.Equal(t, []string{"基因表达", "达矩阵"}, out)
	})

	t.Run("窗口非法时不切片", func(t *testing.T) {
		long := strings.Repeat("x", 5000)
		out := splitByRunes(long, 0, 0)
		require.Len(t, out, 1)
		assert.Equal(t, long, out[0])
	})
}
