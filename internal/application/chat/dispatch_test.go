package chat

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parithera-api/internal/config"
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/infrastructure/storage"
	apperrors "parithera-api/pkg/errors"
)

func newTestDispatcher(t *testing.T, results *fakeResults, publisher *fakePublisher) (*Dispatcher, *fakeAnalyses, *storage.Store) {
	t.Helper()

	store := storage.NewStore(t.TempDir())
	analyses := newFakeAnalyses("analysis-1")
	d := NewDispatcher(
		&fakeAnalyzers{analyzer: &entity.Analyzer{ID: "analyzer-1", Name: entity.AnalyzerNamePythonScript}},
		analyses,
		results,
		publisher,
		store,
		&config.ChatConfig{PollMaxAttempts: 3, PollInterval: time.Millisecond},
	)
	return d, analyses, store
}

func writeArtifacts(t *testing.T, store *storage.Store, orgID, projectID, analysisID, jsonBody string, image []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(store.ProjectDataDir(orgID, projectID), 0o755))
	require.NoError(t, os.WriteFile(store.ArtifactJSONPath(orgID, projectID, analysisID), []byte(jsonBody), 0o644))
	if image != nil {
		require.NoError(t, os.WriteFile(store.ArtifactImagePath(orgID, projectID, analysisID), image, 0o644))
	}
}

func TestDispatcherRunScript(t *testing.T) {
	ctx := context.Background()

	t.Run("第三次轮询拿到结果", func(t *testing.T) {
		results := &fakeResults{nilBefore: 2, result: pythonResult()}
		publisher := &fakePublisher{}
		d, analyses, store := newTestDispatcher(t, results, publisher)
		writeArtifacts(t, store, "org-1", "proj-1", "analysis-1", `{"plot":{"x":[1,2],"y":[3,4]}}`, []byte("png-bytes"))

		outcome, err := d.RunScript(ctx, "org-1", "proj-1", "user-1", "import scanpy", nil)

		require.NoError(t, err)
		assert.Equal(t, StateSucceeded, outcome.State)
		assert.Equal(t, "analysis-1", outcome.AnalysisID)
		assert.Equal(t, 3, outcome.Attempts)
		assert.Contains(t, outcome.JSON, "plot")
		assert.NotEmpty(t, outcome.ImageBase64)

		require.Len(t, publisher.published, 1)
		assert.Equal(t, "analysis-1", publisher.published[0].AnalysisID)
		assert.Equal(t, "proj-1", publisher.published[0].ProjectID)
		require.Len(t, analyses.created, 1)
		assert.Equal(t, "import scanpy", analyses.created[0].Config.Script)
	})

	t.Run("轮询耗尽返回超时", func(t *testing.T) {
		results := &fakeResults{nilBefore: 100}
		d, _, _ := newTestDispatcher(t, results, &fakePublisher{})

		outcome, err := d.RunScript(ctx, "org-1", "proj-1", "user-1", "import scanpy", nil)

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeAnalysisTimeout, apperrors.AsAppError(err).Code)
		assert.Equal(t, StateTimedOut, outcome.State)
		assert.Equal(t, 3, outcome.Attempts)
		assert.Equal(t, 3, results.calls)
	})

	t.Run("worker 回报错误视为无产物", func(t *testing.T) {
		results := &fakeResults{result: pythonResult("Traceback: something broke")}
		d, _, _ := newTestDispatcher(t, results, &fakePublisher{})

		outcome, err := d.RunScript(ctx, "org-1", "proj-1", "user-1", "import scanpy", nil)

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeScriptProducedNoOutput, apperrors.AsAppError(err).Code)
		assert.Equal(t, StateFailed, outcome.State)
	})

	t.Run("JSON 产物缺失视为无产物", func(t *testing.T) {
		results := &fakeResults{result: pythonResult()}
		d, _, _ := newTestDispatcher(t, results, &fakePublisher{})

		outcome, err := d.RunScript(ctx, "org-1", "proj-1", "user-1", "import scanpy", nil)

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeScriptProducedNoOutput, apperrors.AsAppError(err).Code)
		assert.Equal(t, StateFailed, outcome.State)
	})

	t.Run("发布失败时分析标记为失败", func(t *testing.T) {
		publisher := &fakePublisher{err: assert.AnError}
		d, analyses, _ := newTestDispatcher(t, &fakeResults{}, publisher)

		outcome, err := d.RunScript(ctx, "org-1", "proj-1", "user-1", "import scanpy", nil)

		require.Error(t, err)
		assert.Equal(t, apperrors.CodeDispatchError, apperrors.AsAppError(err).Code)
		assert.Equal(t, StateFailed, outcome.State)
		assert.Equal(t, entity.AnalysisStatusFailure, analyses.statusUpdates["analysis-1"])
	})

	t.Run("上下文取消中止轮询", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		results := &fakeResults{nilBefore: 100}
		d, _, _ := newTestDispatcher(t, results, &fakePublisher{})

		outcome, err := d.RunScript(cctx, "org-1", "proj-1", "user-1", "import scanpy", nil)

		require.Error(t, err)
		assert.Equal(t, StateFailed, outcome.State)
	})
}
