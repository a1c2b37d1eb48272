package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parithera-api/internal/application/chat/prompts"
	"parithera-api/internal/application/chat/scripts"
	"parithera-api/internal/config"
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/infrastructure/storage"
	apperrors "parithera-api/pkg/errors"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	gateway      *fakeGateway
	chats        *fakeChats
	projects     *fakeProjects
	memberships  *fakeMemberships
	results      *fakeResults
	publisher    *fakePublisher
	mailer       *fakeMailer
	store        *storage.Store
	cfg          *config.ChatConfig
}

func newOrchestratorFixture(t *testing.T, gateway *fakeGateway) *orchestratorFixture {
	t.Helper()

	store := storage.NewStore(t.TempDir())
	chats := newFakeChats()
	results := &fakeResults{result: pythonResult()}
	publisher := &fakePublisher{}
	memberships := &fakeMemberships{allowed: true}
	mailer := &fakeMailer{}
	cfg := &config.ChatConfig{PollMaxAttempts: 3, PollInterval: time.Millisecond}

	project := &entity.Project{
		ID:             "proj-1",
		OrganizationID: "org-1",
		Name:           "Lung atlas",
		Samples: []entity.Sample{
			{ID: "sample-1", Name: "s1", Files: []entity.SampleFile{{ID: "file-1"}}},
		},
	}
	projects := newFakeProjects(project)

	service := NewService(chats, results, fakeTx{}, store, nil)
	dispatcher := NewDispatcher(
		&fakeAnalyzers{analyzer: &entity.Analyzer{ID: "analyzer-1", Name: entity.AnalyzerNamePythonScript}},
		newFakeAnalyses("analysis-1"),
		results,
		publisher,
		store,
		cfg,
	)

	orchestrator := NewOrchestrator(
		memberships,
		projects,
		service,
		gateway,
		prompts.NewRegistry(),
		scripts.NewLibrary(),
		dispatcher,
		nil,
		store,
		&fakeUsers{user: &entity.User{ID: "user-1", Email: "user@example.com"}},
		mailer,
		cfg,
	)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		gateway:      gateway,
		chats:        chats,
		projects:     projects,
		memberships:  memberships,
		results:      results,
		publisher:    publisher,
		mailer:       mailer,
		store:        store,
		cfg:          cfg,
	}
}

func turnRequest(request string) TurnRequest {
	return TurnRequest{
		OrganizationID: "org-1",
		ProjectID:      "proj-1",
		UserID:         "user-1",
		Request:        request,
	}
}

func TestHandleTurnRAG(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{
		"rag",
		"UMAP projects cells into two dimensions.\n--FOLLOWUPS--\nHow do I color by gene?\nHow do I export coordinates?",
	}}
	fx := newOrchestratorFixture(t, gateway)
	emitter := &recordingEmitter{}

	msg, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("what is a umap?"), emitter)

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeSuccess, respType)
	assert.Equal(t, string(entity.AgentRAG), msg.Agent)
	assert.Equal(t, "UMAP projects cells into two dimensions.\n", msg.Text)
	assert.Equal(t, []string{"How do I color by gene?", "How do I export coordinates?"}, msg.Followup)
	assert.Equal(t, StatusDone, msg.Status)
	assert.Empty(t, msg.Error)

	// 落库后历史恰好多出一条，最新在前
	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	require.NotNil(t, chat)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "what is a umap?", chat.Messages[0].Request)
	assert.Equal(t, StatusDone, chat.Messages[0].Status)
	assert.Equal(t, "", chat.Messages[1].Request)

	assert.Equal(t, []string{
		StatusAgentChosen,
		StatusLLMAnswerReceived,
		StatusGeneratingFollowUp,
	}, emitter.statuses())
}

func TestHandleTurnScriptFastPath(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{"scanpy", scripts.ScriptUMAP}}
	fx := newOrchestratorFixture(t, gateway)
	writeArtifacts(t, fx.store, "org-1", "proj-1", "analysis-1", `{"plot":{"series":[]}}`, []byte("png"))
	emitter := &recordingEmitter{}

	msg, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("run a umap on my data"), emitter)

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeSuccess, respType)
	assert.Equal(t, string(entity.AgentScanpy), msg.Agent)
	assert.NotEmpty(t, msg.Code)
	assert.Len(t, msg.Followup, 5)
	assert.Contains(t, msg.JSON, "plot")
	assert.NotEmpty(t, msg.Image)

	// 调度消息携带分析与项目标识
	require.Len(t, fx.publisher.published, 1)
	assert.Equal(t, "analysis-1", fx.publisher.published[0].AnalysisID)

	// 落库的 image 字段存分析引用而非内联产物
	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "analysis-1", chat.Messages[0].Image)

	// 脚本已写入执行沙箱
	written, rerr := os.ReadFile(filepath.Join(fx.store.ProjectPythonDir("org-1", "proj-1"), "script.py"))
	require.NoError(t, rerr)
	assert.Equal(t, msg.Code, string(written))

	assert.Contains(t, emitter.statuses(), StatusScriptExecuted)
	assert.Equal(t, []string{"analysis-1"}, fx.mailer.finished)
}

func TestHandleTurnCustomScript(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{
		"scanpy",
		"custom",
		"Here you go:\n```python\nimport scanpy as sc\nsc.tl.rank_genes_groups(adata)\n```\n--FOLLOWUPS--\nShould I plot the result?",
	}}
	fx := newOrchestratorFixture(t, gateway)
	writeArtifacts(t, fx.store, "org-1", "proj-1", "analysis-1", `{"table":[]}`, nil)

	msg, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("rank genes by my custom condition"), NopEmitter{})

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeSuccess, respType)
	assert.Contains(t, msg.Code, "rank_genes_groups")
	assert.Equal(t, []string{"Should I plot the result?"}, msg.Followup)
	assert.Contains(t, msg.JSON, "table")
	assert.Empty(t, msg.Image)
}

func TestHandleTurnUnknownAgent(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{"weather"}}
	fx := newOrchestratorFixture(t, gateway)

	msg, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("what is the weather?"), NopEmitter{})

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeError, respType)
	assert.Equal(t, "Cannot choose which agent to launch", msg.Error)
	assert.Equal(t, "", msg.Agent)

	// 失败回合照常落库
	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "Cannot choose which agent to launch", chat.Messages[0].Error)
}

func TestHandleTurnUnknownScriptLabel(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{"scanpy", "no idea"}}
	fx := newOrchestratorFixture(t, gateway)

	msg, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("do something odd"), NopEmitter{})

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeError, respType)
	assert.NotEmpty(t, msg.Error)

	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	require.Len(t, chat.Messages, 2)
}

func TestHandleTurnRoleDenied(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{}
	fx := newOrchestratorFixture(t, gateway)
	fx.memberships.allowed = false

	_, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("hello"), NopEmitter{})

	require.Error(t, err)
	assert.Equal(t, ResponseTypeError, respType)
	assert.Equal(t, apperrors.CodeNotAuthorized, apperrors.AsAppError(err).Code)

	// 鉴权失败不落库
	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	assert.Nil(t, chat)
	assert.Empty(t, gateway.calls)
}

func TestHandleTurnCrossOrganizationProject(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{}
	fx := newOrchestratorFixture(t, gateway)

	req := turnRequest("show me this project")
	req.OrganizationID = "other-org"

	_, respType, err := fx.orchestrator.HandleTurn(ctx, req, NopEmitter{})

	require.Error(t, err)
	assert.Equal(t, ResponseTypeError, respType)
	assert.Equal(t, apperrors.CodeProjectNotFound, apperrors.AsAppError(err).Code)

	// 项目属于别的组织时不创建对话也不调用 LLM
	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	assert.Nil(t, chat)
	assert.Empty(t, gateway.calls)
}

func TestHandleTurnUnknownProject(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{}
	fx := newOrchestratorFixture(t, gateway)

	req := turnRequest("hello")
	req.ProjectID = "missing"

	_, respType, err := fx.orchestrator.HandleTurn(ctx, req, NopEmitter{})

	require.Error(t, err)
	assert.Equal(t, ResponseTypeError, respType)
	assert.Equal(t, apperrors.CodeProjectNotFound, apperrors.AsAppError(err).Code)
}

func TestHandleTurnClassifierProse(t *testing.T) {
	ctx := context.Background()

	// 分类回答必须精确等于 rag 或 scanpy，夹带其他文字按无法选择处理
	gateway := &fakeGateway{answers: []string{"I will answer with a short paragraph"}}
	fx := newOrchestratorFixture(t, gateway)

	msg, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("what is a umap?"), NopEmitter{})

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeError, respType)
	assert.Equal(t, "Cannot choose which agent to launch", msg.Error)
	assert.Equal(t, "", msg.Agent)
	require.Len(t, gateway.calls, 1)
}

func TestHandleTurnClassifierFailure(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{errs: []error{assert.AnError}}
	fx := newOrchestratorFixture(t, gateway)

	_, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("hello"), NopEmitter{})

	require.Error(t, err)
	assert.Equal(t, ResponseTypeError, respType)

	// 分类失败时没有任何回答可落库，历史只有欢迎消息
	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	require.NotNil(t, chat)
	assert.Len(t, chat.Messages, 1)
}

func TestHandleTurnWithHistory(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{
		"rag",
		"Clusters group similar cells.",
	}}
	fx := newOrchestratorFixture(t, gateway)
	fx.cfg.IncludeHistory = true

	seeded := entity.NewChat("proj-1")
	seeded.Prepend(entity.Message{
		Request:   "what did my umap show?",
		Text:      "It showed three clusters.",
		Followup:  []string{},
		Timestamp: time.Now(),
	})
	require.NoError(t, fx.chats.Create(ctx, seeded))

	_, respType, err := fx.orchestrator.HandleTurn(ctx, turnRequest("tell me more about clusters"), NopEmitter{})

	require.NoError(t, err)
	assert.Equal(t, ResponseTypeSuccess, respType)

	// 历史回合插在系统提示与当前请求之间，按时间正序回放
	require.Len(t, gateway.calls, 2)
	ragCall := gateway.calls[1]
	require.Len(t, ragCall, 4)
	assert.Equal(t, schema.System, ragCall[0].Role)
	assert.Equal(t, schema.User, ragCall[1].Role)
	assert.Equal(t, "what did my umap show?", ragCall[1].Content)
	assert.Equal(t, schema.Assistant, ragCall[2].Role)
	assert.Contains(t, ragCall[3].Content, "tell me more about clusters")
}

func TestHandleTurnHistoryOrdering(t *testing.T) {
	ctx := context.Background()

	gateway := &fakeGateway{answers: []string{
		"rag", "first answer",
		"rag", "second answer",
	}}
	fx := newOrchestratorFixture(t, gateway)

	_, _, err := fx.orchestrator.HandleTurn(ctx, turnRequest("first question"), NopEmitter{})
	require.NoError(t, err)
	_, _, err = fx.orchestrator.HandleTurn(ctx, turnRequest("second question"), NopEmitter{})
	require.NoError(t, err)

	chat, gerr := fx.chats.GetByProject(ctx, "proj-1")
	require.NoError(t, gerr)
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, "second question", chat.Messages[0].Request)
	assert.Equal(t, "first question", chat.Messages[1].Request)
	assert.Equal(t, "", chat.Messages[2].Request)
}
