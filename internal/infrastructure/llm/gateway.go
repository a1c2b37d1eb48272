package llm

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"parithera-api/internal/config"
	"parithera-api/pkg/errors"
	"parithera-api/pkg/metrics"
)

var tracer = otel.Tracer("llm")

// Gateway 对话补全网关
type Gateway interface {
	// Complete 执行一次非流式补全，返回助手回复文本
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// EinoGateway 基于 Eino ChatModel 的补全网关
type EinoGateway struct {
	factory  *EinoFactory
	provider string
	model    string
	timeout  time.Duration
}

// NewEinoGateway 创建补全网关
func NewEinoGateway(factory *EinoFactory, cfg *config.Config) *EinoGateway {
	provider := cfg.LLM.DefaultProvider
	modelName := ""
	if pc, ok := cfg.LLM.Providers[provider]; ok {
		modelName = pc.Model
	}
	return &EinoGateway{
		factory:  factory,
		provider: provider,
		model:    modelName,
		timeout:  cfg.Chat.LLMTimeout,
	}
}

// Complete 执行一次补全调用。
// 空回复视为失败，调用方无需再判空。
func (g *EinoGateway) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.Complete")
	span.SetAttributes(
		attribute.String("llm.provider", g.provider),
		attribute.String("llm.model", g.model),
		attribute.Int("llm.message_count", len(messages)),
	)
	defer span.End()

	chatModel, err := g.factory.Default(ctx)
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "llm provider not configured")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := chatModel.Generate(ctx, messages)
	metrics.LLMCallDuration.WithLabelValues(g.provider, g.model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		span.RecordError(err)
		return "", errors.Wrap(err, errors.CodeLLMCallFailed, "llm call failed")
	}

	content := ""
	if out != nil {
		content = strings.TrimSpace(out.Content)
	}
	if content == "" {
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "empty").Inc()
		return "", errors.New(errors.CodeLLMCallFailed, "llm returned empty content")
	}

	metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "ok").Inc()
	return content, nil
}
