package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parithera-api/internal/config"
	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/messaging"
	"parithera-api/internal/infrastructure/storage"
	apperrors "parithera-api/pkg/errors"
	"parithera-api/pkg/logger"
	"parithera-api/pkg/metrics"
)

var tracer = otel.Tracer("chat")

// DispatchState 调度状态机状态
type DispatchState string

const (
	StateSubmitted DispatchState = "submitted"
	StatePolling   DispatchState = "polling"
	StateSucceeded DispatchState = "succeeded"
	StateTimedOut  DispatchState = "timed_out"
	StateFailed    DispatchState = "failed"
)

// DispatchPublisher 调度消息出口
type DispatchPublisher interface {
	PublishDispatch(ctx context.Context, msg *messaging.DispatcherPluginMessage) error
}

// Outcome 一次脚本调度的结果
type Outcome struct {
	// State 终态，Succeeded/TimedOut/Failed 之一
	State DispatchState
	// AnalysisID 分析任务 ID，提交成功后非空
	AnalysisID string
	// Attempts 实际轮询次数
	Attempts int
	// JSON 解析后的 JSON 产物
	JSON map[string]interface{}
	// ImageBase64 PNG 产物的 base64 编码，缺失为空
	ImageBase64 string
}

// Dispatcher 脚本执行调度器。提交分析任务到队列 worker 并轮询结果,
// 状态流转 Submitted -> Polling -> {Succeeded | TimedOut | Failed}。
type Dispatcher struct {
	analyzers repository.AnalyzerRepository
	analyses  repository.AnalysisRepository
	results   repository.ResultRepository
	publisher DispatchPublisher
	store     *storage.Store
	cfg       *config.ChatConfig
}

// NewDispatcher 创建调度器
func NewDispatcher(
	analyzers repository.AnalyzerRepository,
	analyses repository.AnalysisRepository,
	results repository.ResultRepository,
	publisher DispatchPublisher,
	store *storage.Store,
	cfg *config.ChatConfig,
) *Dispatcher {
	return &Dispatcher{
		analyzers: analyzers,
		analyses:  analyses,
		results:   results,
		publisher: publisher,
		store:     store,
		cfg:       cfg,
	}
}

// RunScript 提交脚本执行并等待产物。
// 队列不可达返回 DispatchError；轮询耗尽返回 AnalysisTimeout；
// 结果存在但 JSON 产物为空返回 ScriptProducedNoOutput。
func (d *Dispatcher) RunScript(ctx context.Context, orgID, projectID, userID, script string, groups []entity.Group) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "dispatcher.RunScript",
		trace.WithAttributes(
			attribute.String("organization_id", orgID),
			attribute.String("project_id", projectID),
		))
	defer span.End()

	analysis, err := d.submit(ctx, orgID, projectID, userID, script, groups)
	if err != nil {
		metrics.AnalysisDispatchTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return &Outcome{State: StateFailed}, err
	}
	metrics.AnalysisDispatchTotal.WithLabelValues("ok").Inc()

	outcome := &Outcome{State: StatePolling, AnalysisID: analysis.ID}

	result, err := d.poll(ctx, outcome)
	if err != nil {
		span.RecordError(err)
		return outcome, err
	}

	if err := d.resolve(ctx, orgID, projectID, outcome, result); err != nil {
		span.RecordError(err)
		return outcome, err
	}

	outcome.State = StateSucceeded
	return outcome, nil
}

// submit 落库分析任务并发布调度消息
func (d *Dispatcher) submit(ctx context.Context, orgID, projectID, userID, script string, groups []entity.Group) (*entity.Analysis, error) {
	analyzer, err := d.analyzers.GetByName(ctx, orgID, entity.AnalyzerNamePythonScript)
	if err != nil {
		return nil, err
	}
	if analyzer == nil {
		return nil, apperrors.New(apperrors.CodeAnalyzerNotFound, "analyzer not found").
			WithDetail(entity.AnalyzerNamePythonScript)
	}

	analysis := entity.NewAnalysis(orgID, projectID, analyzer.ID, &entity.AnalysisConfig{
		Script: script,
		Groups: groups,
	})
	if err := d.analyses.Create(ctx, analysis); err != nil {
		return nil, err
	}

	msg := messaging.NewChatDispatchMessage(analysis.ID, projectID)
	if err := d.publisher.PublishDispatch(ctx, msg); err != nil {
		// 任务已落库但 worker 永远不会收到，标记失败
		if uerr := d.analyses.UpdateStatus(ctx, analysis.ID, entity.AnalysisStatusFailure); uerr != nil {
			logger.Warn(ctx, "failed to mark analysis as failed", "analysis_id", analysis.ID, "error", uerr)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDispatchError, "failed to publish dispatch message")
	}

	logger.Info(ctx, "analysis dispatched",
		"analysis_id", analysis.ID,
		"project_id", projectID,
	)
	return analysis, nil
}

// poll 按配置的间隔与次数上限轮询结果
func (d *Dispatcher) poll(ctx context.Context, outcome *Outcome) (*entity.Result, error) {
	for attempt := 1; attempt <= d.cfg.PollMaxAttempts; attempt++ {
		outcome.Attempts = attempt

		result, err := d.results.GetByAnalysisAndPlugin(ctx, outcome.AnalysisID, entity.PluginKindPython)
		if err != nil {
			return nil, err
		}
		if result != nil {
			metrics.AnalysisPollAttempts.WithLabelValues("found").Observe(float64(attempt))
			return result, nil
		}

		if attempt == d.cfg.PollMaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			outcome.State = StateFailed
			return nil, ctx.Err()
		case <-time.After(d.cfg.PollInterval):
		}
	}

	metrics.AnalysisPollAttempts.WithLabelValues("timeout").Observe(float64(outcome.Attempts))
	outcome.State = StateTimedOut
	return nil, apperrors.New(apperrors.CodeAnalysisTimeout, "script failed to execute").
		WithDetail(fmt.Sprintf("analysis %s: no result after %d polls", outcome.AnalysisID, outcome.Attempts))
}

// resolve 读取产物文件。JSON 产物缺失或为空对象视为 worker 侧失败。
func (d *Dispatcher) resolve(ctx context.Context, orgID, projectID string, outcome *Outcome, result *entity.Result) error {
	if result.HasErrors() {
		outcome.State = StateFailed
		return apperrors.New(apperrors.CodeScriptProducedNoOutput, "script execution reported errors").
			WithDetail(outcome.AnalysisID)
	}

	raw, err := d.store.ReadArtifactJSON(ctx, orgID, projectID, outcome.AnalysisID)
	if err != nil {
		outcome.State = StateFailed
		return err
	}

	var payload map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			outcome.State = StateFailed
			return apperrors.Wrap(err, apperrors.CodeScriptProducedNoOutput, "artifact json is not parseable").
				WithDetail(outcome.AnalysisID)
		}
	}
	if len(payload) == 0 {
		outcome.State = StateFailed
		return apperrors.New(apperrors.CodeScriptProducedNoOutput, "script produced no output").
			WithDetail(outcome.AnalysisID)
	}
	outcome.JSON = payload

	img, err := d.store.ReadArtifactImage(ctx, orgID, projectID, outcome.AnalysisID)
	if err != nil {
		outcome.State = StateFailed
		return err
	}
	if len(img) > 0 {
		outcome.ImageBase64 = base64.StdEncoding.EncodeToString(img)
	}
	return nil
}
