package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parithera-api/internal/application/chat/prompts"
	"parithera-api/internal/application/chat/scripts"
	"parithera-api/internal/application/retrieval"
	"parithera-api/internal/config"
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/email"
	"parithera-api/internal/infrastructure/llm"
	"parithera-api/internal/infrastructure/storage"
	apperrors "parithera-api/pkg/errors"
	"parithera-api/pkg/logger"
	"parithera-api/pkg/metrics"
)

// scriptLanguageTag 生成脚本的围栏代码块语言标记
const scriptLanguageTag = "python"

// customScriptLabel 脚本分类器要求定制脚本时的标记
const customScriptLabel = "custom"

// historyTurns RAG 与脚本生成调用携带的历史回合数
const historyTurns = 3

// TurnRequest 一次对话回合的输入
type TurnRequest struct {
	OrganizationID string
	ProjectID      string
	UserID         string
	Request        string
}

// Orchestrator 回合编排器。对每条用户消息依次执行意图分类、分支处理
// 与历史落库，进度经 StatusEmitter 推送。同一项目的回合串行执行。
type Orchestrator struct {
	memberships repository.MembershipRepository
	projects    repository.ProjectRepository
	service     *Service
	gateway     llm.Gateway
	registry    *prompts.Registry
	library     *scripts.Library
	dispatcher  *Dispatcher
	retrieval   *retrieval.Engine
	store       *storage.Store
	users       repository.UserRepository
	mailer      email.Mailer
	cfg         *config.ChatConfig

	locks sync.Map
}

// NewOrchestrator 创建回合编排器。retrieval 允许为空，为空时跳过检索增强。
func NewOrchestrator(
	memberships repository.MembershipRepository,
	projects repository.ProjectRepository,
	service *Service,
	gateway llm.Gateway,
	registry *prompts.Registry,
	library *scripts.Library,
	dispatcher *Dispatcher,
	engine *retrieval.Engine,
	store *storage.Store,
	users repository.UserRepository,
	mailer email.Mailer,
	cfg *config.ChatConfig,
) *Orchestrator {
	return &Orchestrator{
		memberships: memberships,
		projects:    projects,
		service:     service,
		gateway:     gateway,
		registry:    registry,
		library:     library,
		dispatcher:  dispatcher,
		retrieval:   engine,
		store:       store,
		users:       users,
		mailer:      mailer,
		cfg:         cfg,
	}
}

// projectLock 返回项目级互斥锁，保证同项目回合串行
func (o *Orchestrator) projectLock(projectID string) *sync.Mutex {
	v, _ := o.locks.LoadOrStore(projectID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// HandleTurn 处理一轮对话。鉴权失败与 LLM 完全不可用时直接返回错误，
// 其余失败记录到回合的 error 字段并照常落库，历史始终多出恰好一条。
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest, emitter StatusEmitter) (*entity.Message, ResponseType, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.HandleTurn",
		trace.WithAttributes(
			attribute.String("organization_id", req.OrganizationID),
			attribute.String("project_id", req.ProjectID),
		))
	defer span.End()

	start := time.Now()

	ok, err := o.memberships.HasRequiredRole(ctx, req.OrganizationID, req.UserID, entity.MemberRoleUser)
	if err != nil {
		span.RecordError(err)
		return nil, ResponseTypeError, err
	}
	if !ok {
		return nil, ResponseTypeError, apperrors.New(apperrors.CodeNotAuthorized, "insufficient role in organization")
	}

	// 项目必须属于请求的组织，对话按 projectId 存取，越权即可读写他人历史
	project, err := o.projects.GetByID(ctx, req.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, ResponseTypeError, err
	}
	if project == nil || project.OrganizationID != req.OrganizationID {
		return nil, ResponseTypeError, apperrors.New(apperrors.CodeProjectNotFound, "project not found").
			WithDetail(req.ProjectID)
	}

	lock := o.projectLock(req.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	chat, err := o.service.GetOrCreate(ctx, req.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, ResponseTypeError, err
	}

	agent, err := o.classify(ctx, req.Request)
	if err != nil {
		// 没有任何回答可用，不构造残缺回合
		span.RecordError(err)
		return nil, ResponseTypeError, err
	}

	msg := entity.Message{
		Request:   req.Request,
		Followup:  []string{},
		JSON:      map[string]interface{}{},
		Agent:     agent,
		Timestamp: time.Now(),
	}
	emitStatus(ctx, emitter, &msg, StatusAgentChosen)

	respType := ResponseTypeSuccess
	analysisID := ""

	// 意图分类只接受精确回答，夹带其他文字一律按无法选择处理
	switch agent {
	case string(entity.AgentRAG):
		if err := o.ragTurn(ctx, req, chat, &msg, emitter); err != nil {
			o.recordTurnError(ctx, &msg, err)
			respType = ResponseTypeError
		}
	case string(entity.AgentScanpy):
		id, err := o.scriptTurn(ctx, req, chat, &msg, emitter)
		analysisID = id
		if err != nil {
			o.recordTurnError(ctx, &msg, err)
			respType = ResponseTypeError
		}
	default:
		msg.Error = "Cannot choose which agent to launch"
		msg.Agent = ""
		respType = ResponseTypeError
	}

	// 落库时 image 存分析引用，读取路径再解析成内联产物
	persisted := msg
	persisted.Status = StatusDone
	persisted.Image = analysisID
	persisted.JSON = map[string]interface{}{}
	if _, err := o.service.PrependMessage(ctx, req.ProjectID, persisted); err != nil {
		span.RecordError(err)
		return nil, ResponseTypeError, err
	}

	if respType == ResponseTypeSuccess && analysisID != "" {
		o.notifyAnalysisFinished(ctx, req, analysisID)
	}

	msg.Status = StatusDone
	metrics.ChatTurnsTotal.WithLabelValues(labelAgent(msg.Agent), string(respType)).Inc()
	metrics.ChatTurnDuration.WithLabelValues(labelAgent(msg.Agent)).Observe(time.Since(start).Seconds())

	logger.Info(ctx, "chat turn completed",
		"project_id", req.ProjectID,
		"agent", msg.Agent,
		"type", string(respType),
	)
	return &msg, respType, nil
}

// classify 意图分类，期望回答 rag 或 scanpy
func (o *Orchestrator) classify(ctx context.Context, request string) (string, error) {
	tpl, err := o.registry.ChatTemplate(prompts.PromptIntentClassifierV1)
	if err != nil {
		return "", err
	}
	messages, err := tpl.Format(ctx, map[string]any{"request": request})
	if err != nil {
		return "", err
	}
	answer, err := o.gateway.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// ragTurn 知识问答分支
func (o *Orchestrator) ragTurn(ctx context.Context, req TurnRequest, chat *entity.Chat, msg *entity.Message, emitter StatusEmitter) error {
	tpl, err := o.registry.ChatTemplate(prompts.PromptRAGAnswerV1)
	if err != nil {
		return err
	}
	messages, err := tpl.Format(ctx, map[string]any{
		"request": req.Request,
		"context": o.retrievalContext(ctx, req),
	})
	if err != nil {
		return err
	}
	messages = o.withHistory(messages, chat)

	answer, err := o.gateway.Complete(ctx, messages)
	if err != nil {
		return err
	}
	emitStatus(ctx, emitter, msg, StatusLLMAnswerReceived)

	emitStatus(ctx, emitter, msg, StatusGeneratingFollowUp)
	msg.Text, msg.Followup = ParseFollowups(answer)
	return nil
}

// retrievalContext 检索知识库片段拼装进 RAG 系统提示，检索不可用时返回空
func (o *Orchestrator) retrievalContext(ctx context.Context, req TurnRequest) string {
	if !o.cfg.RetrievalEnabled || o.retrieval == nil || !o.retrieval.Enabled() {
		return ""
	}

	out, err := o.retrieval.Search(ctx, retrieval.SearchInput{
		OrganizationID: req.OrganizationID,
		Query:          req.Request,
		TopK:           4,
	})
	if err != nil || out == nil || len(out.Chunks) == 0 {
		if err != nil {
			logger.Warn(ctx, "knowledge retrieval failed", "error", err)
		}
		return ""
	}

	var b strings.Builder
	b.WriteString("Reference excerpts:\n")
	for _, chunk := range out.Chunks {
		b.WriteString("- ")
		b.WriteString(chunk.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// scriptTurn 脚本执行分支。返回分析 ID 用于落库时的产物引用。
func (o *Orchestrator) scriptTurn(ctx context.Context, req TurnRequest, chat *entity.Chat, msg *entity.Message, emitter StatusEmitter) (string, error) {
	label, err := o.classifyScript(ctx, req.Request)
	if err != nil {
		return "", err
	}
	emitStatus(ctx, emitter, msg, StatusLLMAnswerReceived)

	var script string
	if strings.Contains(label, customScriptLabel) {
		script, err = o.authorScript(ctx, req, chat, msg)
	} else {
		script, err = o.chooseScript(label, msg)
	}
	if err != nil {
		return "", err
	}
	emitStatus(ctx, emitter, msg, StatusCodeReady)

	if err := o.store.WriteScript(ctx, req.OrganizationID, req.ProjectID, script); err != nil {
		return "", err
	}

	project, err := o.projects.GetByIDWithSamples(ctx, req.ProjectID)
	if err != nil {
		return "", err
	}
	if project == nil {
		return "", apperrors.New(apperrors.CodeProjectNotFound, "project not found").
			WithDetail(req.ProjectID)
	}
	groups := entity.GroupsFromSamples(project.Samples)

	emitStatus(ctx, emitter, msg, StatusScriptStarted)

	outcome, err := o.dispatcher.RunScript(ctx, req.OrganizationID, req.ProjectID, req.UserID, script, groups)
	if err != nil {
		if outcome != nil {
			return outcome.AnalysisID, err
		}
		return "", err
	}
	emitStatus(ctx, emitter, msg, StatusScriptExecuted)

	msg.JSON = outcome.JSON
	msg.Image = outcome.ImageBase64
	return outcome.AnalysisID, nil
}

// classifyScript 判定需要哪个预置脚本或 custom
func (o *Orchestrator) classifyScript(ctx context.Context, request string) (string, error) {
	tpl, err := o.registry.ChatTemplate(prompts.PromptScriptClassifierV1)
	if err != nil {
		return "", err
	}
	messages, err := tpl.Format(ctx, map[string]any{"request": request})
	if err != nil {
		return "", err
	}
	answer, err := o.gateway.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// chooseScript 预置脚本快路径，不再调用 LLM
func (o *Orchestrator) chooseScript(label string, msg *entity.Message) (string, error) {
	script, err := o.library.Choose(label)
	if err != nil {
		return "", err
	}
	msg.Code = script.Body
	msg.Followup = append(msg.Followup, script.Followups...)
	return script.Body, nil
}

// authorScript 定制脚本路径，由 LLM 生成脚本体
func (o *Orchestrator) authorScript(ctx context.Context, req TurnRequest, chat *entity.Chat, msg *entity.Message) (string, error) {
	tpl, err := o.registry.ChatTemplate(prompts.PromptScriptAuthorV1)
	if err != nil {
		return "", err
	}
	messages, err := tpl.Format(ctx, map[string]any{"request": req.Request})
	if err != nil {
		return "", err
	}
	messages = o.withHistory(messages, chat)

	answer, err := o.gateway.Complete(ctx, messages)
	if err != nil {
		return "", err
	}

	script, err := ExtractCodeBlock(answer, scriptLanguageTag)
	if err != nil {
		return "", err
	}

	_, followups := ParseFollowups(answer)
	msg.Code = script
	msg.Followup = append(msg.Followup, followups...)
	return script, nil
}

// withHistory 按配置把最近几轮对话插到系统提示与本次请求之间
func (o *Orchestrator) withHistory(messages []*schema.Message, chat *entity.Chat) []*schema.Message {
	if !o.cfg.IncludeHistory || len(messages) < 2 || chat == nil {
		return messages
	}

	n := historyTurns
	if n > len(chat.Messages) {
		n = len(chat.Messages)
	}

	history := make([]*schema.Message, 0, n*2)
	// 消息存储为最新在前，按时间正序回放
	for i := n - 1; i >= 0; i-- {
		turn := chat.Messages[i]
		if turn.Request == "" {
			continue
		}
		history = append(history, schema.UserMessage(turn.Request))
		history = append(history, schema.AssistantMessage(turn.Text, nil))
	}
	if len(history) == 0 {
		return messages
	}

	out := make([]*schema.Message, 0, len(messages)+len(history))
	out = append(out, messages[0])
	out = append(out, history...)
	out = append(out, messages[1:]...)
	return out
}

// notifyAnalysisFinished 分析成功后通知发起用户，失败只记日志
func (o *Orchestrator) notifyAnalysisFinished(ctx context.Context, req TurnRequest, analysisID string) {
	if o.mailer == nil || o.users == nil {
		return
	}

	user, err := o.users.GetByID(ctx, req.UserID)
	if err != nil || user == nil {
		return
	}

	project, err := o.projects.GetByID(ctx, req.ProjectID)
	if err != nil || project == nil {
		return
	}

	if err := o.mailer.SendAnalysisFinished(ctx, user.Email, project.Name, analysisID); err != nil {
		logger.Warn(ctx, "failed to send analysis notification",
			"user_id", req.UserID,
			"analysis_id", analysisID,
			"error", err.Error(),
		)
	}
}

// recordTurnError 把分支失败记录到回合的 error 字段
func (o *Orchestrator) recordTurnError(ctx context.Context, msg *entity.Message, err error) {
	logger.Error(ctx, "chat turn failed", err, "agent", msg.Agent)
	msg.Error = apperrors.AsAppError(err).Message
}

func labelAgent(agent string) string {
	if agent == "" {
		return "none"
	}
	return agent
}
