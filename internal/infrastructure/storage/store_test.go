package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreArtifacts(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	t.Run("产物缺失返回空内容而非错误", func(t *testing.T) {
		data, err := store.ReadArtifactJSON(ctx, "org-1", "proj-1", "missing")
		require.NoError(t, err)
		assert.Nil(t, data)

		img, err := store.ReadArtifactImage(ctx, "org-1", "proj-1", "missing")
		require.NoError(t, err)
		assert.Nil(t, img)
	})

	t.Run("产物按分析 ID 读取", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(store.ProjectDataDir("org-1", "proj-1"), 0o755))
		require.NoError(t, os.WriteFile(store.ArtifactJSONPath("org-1", "proj-1", "a1"), []byte(`{"k":1}`), 0o644))
		require.NoError(t, os.WriteFile(store.ArtifactImagePath("org-1", "proj-1", "a1"), []byte("png"), 0o644))

		data, err := store.ReadArtifactJSON(ctx, "org-1", "proj-1", "a1")
		require.NoError(t, err)
		assert.Equal(t, `{"k":1}`, string(data))

		img, err := store.ReadArtifactImage(ctx, "org-1", "proj-1", "a1")
		require.NoError(t, err)
		assert.Equal(t, "png", string(img))
	})
}

func TestStoreWriteScript(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	t.Run("脚本写入沙箱目录", func(t *testing.T) {
		require.NoError(t, store.WriteScript(ctx, "org-1", "proj-1", "import scanpy"))

		data, err := os.ReadFile(filepath.Join(store.ProjectPythonDir("org-1", "proj-1"), "script.py"))
		require.NoError(t, err)
		assert.Equal(t, "import scanpy", string(data))
	})

	t.Run("写入前清空上一次的沙箱内容", func(t *testing.T) {
		dir := store.ProjectPythonDir("org-1", "proj-1")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover.txt"), []byte("stale"), 0o644))

		require.NoError(t, store.WriteScript(ctx, "org-1", "proj-1", "print('fresh')"))

		_, err := os.Stat(filepath.Join(dir, "leftover.txt"))
		assert.True(t, os.IsNotExist(err))

		data, err := os.ReadFile(filepath.Join(dir, "script.py"))
		require.NoError(t, err)
		assert.Equal(t, "print('fresh')", string(data))
	})
}

func TestStoreQCGraphs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	t.Run("QC 图缺失返回 NotExist", func(t *testing.T) {
		_, err := store.ReadQCGraph(ctx, "org-1", "sample-1", QCGraphUMAP)

		require.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("QC 图按名称读取", func(t *testing.T) {
		require.NoError(t, store.EnsureSampleDirs(ctx, "org-1", "sample-1"))
		path := filepath.Join(store.SampleDir("org-1", "sample-1"), "scanpy", QCGraphUMAP+".json")
		require.NoError(t, os.WriteFile(path, []byte(`{"points":[]}`), 0o644))

		data, err := store.ReadQCGraph(ctx, "org-1", "sample-1", QCGraphUMAP)
		require.NoError(t, err)
		assert.Equal(t, `{"points":[]}`, string(data))
	})
}

func TestValidQCGraph(t *testing.T) {
	for _, name := range QCGraphNames {
		assert.True(t, ValidQCGraph(name), name)
	}
	assert.False(t, ValidQCGraph("totally_made_up"))
	assert.False(t, ValidQCGraph(""))
}

func TestSampleDirs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	require.NoError(t, store.EnsureSampleDirs(ctx, "org-1", "sample-1"))
	for _, sub := range []string{"files", "scanpy"} {
		info, err := os.Stat(filepath.Join(store.SampleDir("org-1", "sample-1"), sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	require.NoError(t, store.RemoveSampleDirs(ctx, "org-1", "sample-1"))
	_, err := os.Stat(store.SampleDir("org-1", "sample-1"))
	assert.True(t, os.IsNotExist(err))
}
