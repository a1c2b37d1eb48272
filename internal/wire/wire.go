//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"parithera-api/internal/application/chat"
	"parithera-api/internal/application/chat/prompts"
	"parithera-api/internal/application/chat/scripts"
	"parithera-api/internal/config"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/email"
	"parithera-api/internal/infrastructure/llm"
	"parithera-api/internal/infrastructure/messaging"
	"parithera-api/internal/infrastructure/persistence/postgres"
	"parithera-api/internal/infrastructure/persistence/redis"
	"parithera-api/internal/infrastructure/storage"
	"parithera-api/internal/interfaces/http/handler"
	"parithera-api/internal/interfaces/http/middleware"
)

// InitializeApp 初始化整个应用（带路由器与 WebSocket 网关）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		MilvusAppSet,
		EmbeddingSet,
		RetrievalSet,
		StorageSet,
		LLMSet,
		ChatSet,
		HandlerSet,
		ProvideWSGateway,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewUserRepository,
	postgres.NewOrganizationRepository,
	postgres.NewMembershipRepository,
	postgres.NewProjectRepository,
	postgres.NewSampleRepository,
	postgres.NewChatRepository,
	postgres.NewAnalysisRepository,
	postgres.NewResultRepository,
	postgres.NewAnalyzerRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.UserRepository), new(*postgres.UserRepository)),
	wire.Bind(new(repository.OrganizationRepository), new(*postgres.OrganizationRepository)),
	wire.Bind(new(repository.MembershipRepository), new(*postgres.MembershipRepository)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.SampleRepository), new(*postgres.SampleRepository)),
	wire.Bind(new(repository.ChatRepository), new(*postgres.ChatRepository)),
	wire.Bind(new(repository.AnalysisRepository), new(*postgres.AnalysisRepository)),
	wire.Bind(new(repository.ResultRepository), new(*postgres.ResultRepository)),
	wire.Bind(new(repository.AnalyzerRepository), new(*postgres.AnalyzerRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideMessagingProducer,
	wire.Bind(new(chat.DispatchPublisher), new(*messaging.Producer)),
)

// MilvusAppSet API 网关可选 Milvus（不可达时不阻塞启动）
var MilvusAppSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideMilvusRepositoryOptional,
)

// EmbeddingSet 可选 Embedder（不可用时禁用向量检索）
var EmbeddingSet = wire.NewSet(
	ProvideEmbedderOptional,
)

// RetrievalSet 知识检索引擎
var RetrievalSet = wire.NewSet(
	ProvideRetrievalEngine,
)

// StorageSet 文件存储提供者集合
var StorageSet = wire.NewSet(
	ProvideStore,
	storage.NewDirectUploader,
	wire.Bind(new(storage.Uploader), new(*storage.DirectUploader)),
)

// LLMSet LLM 提供者集合
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	llm.NewEinoGateway,
	wire.Bind(new(llm.Gateway), new(*llm.EinoGateway)),
)

// ChatSet 对话编排提供者集合
var ChatSet = wire.NewSet(
	ProvideChatConfig,
	prompts.NewRegistry,
	scripts.NewLibrary,
	email.NewLogMailer,
	wire.Bind(new(email.Mailer), new(*email.LogMailer)),
	chat.NewService,
	chat.NewDispatcher,
	chat.NewOrchestrator,
)

// HandlerSet HTTP 处理器提供者集合
var HandlerSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewProjectHandler,
	handler.NewSampleHandler,
	handler.NewChatHandler,
	handler.NewKnowledgeHandler,
)
