// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"parithera-api/internal/application/chat"
	"parithera-api/internal/application/retrieval"
	"parithera-api/internal/config"
	"parithera-api/internal/infrastructure/embedding"
	"parithera-api/internal/infrastructure/messaging"
	"parithera-api/internal/infrastructure/persistence/milvus"
	"parithera-api/internal/infrastructure/persistence/postgres"
	"parithera-api/internal/infrastructure/persistence/redis"
	"parithera-api/internal/infrastructure/storage"
	"parithera-api/internal/interfaces/http/handler"
	"parithera-api/internal/interfaces/http/middleware"
	"parithera-api/internal/interfaces/http/router"
	"parithera-api/internal/interfaces/ws"
	"parithera-api/pkg/logger"
)

// App 组装完成的应用
type App struct {
	Router *router.Router
}

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient       *postgres.Client
	TxManager      *postgres.TxManager
	UserRepo       *postgres.UserRepository
	OrgRepo        *postgres.OrganizationRepository
	MembershipRepo *postgres.MembershipRepository
	ProjectRepo    *postgres.ProjectRepository
	SampleRepo     *postgres.SampleRepository
	ChatRepo       *postgres.ChatRepository
	AnalysisRepo   *postgres.AnalysisRepository
	ResultRepo     *postgres.ResultRepository
	AnalyzerRepo   *postgres.AnalyzerRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideMessagingProducer 提供 AMQP 消息生产者
func ProvideMessagingProducer(cfg *config.Config) (*messaging.Producer, func(), error) {
	producer, err := messaging.NewProducer(&cfg.Messaging.AMQP)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		producer.Close()
	}
	return producer, cleanup, nil
}

// ProvideMilvusClientOptional 提供可选 Milvus 客户端，不可达时降级
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector features disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusRepositoryOptional 客户端缺失时返回 nil 仓储
func ProvideMilvusRepositoryOptional(client *milvus.Client) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client)
}

// ProvideEmbedderOptional 提供可选 Embedder，不可用时禁用向量检索
func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	embedder, err := embedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector features disabled", "error", err.Error())
		return nil, nil
	}
	return embedder, nil
}

// ProvideRetrievalEngine 提供知识检索引擎
func ProvideRetrievalEngine(cfg *config.Config, embedder einoembedding.Embedder, vectorRepo *milvus.Repository) *retrieval.Engine {
	bs := 0
	if cfg != nil {
		bs = cfg.Embedding.BatchSize
	}
	return retrieval.NewEngine(embedder, vectorRepo, bs)
}

// ProvideStore 提供私有文件存储
func ProvideStore(cfg *config.Config) *storage.Store {
	return storage.NewStore(cfg.Storage.PrivateRoot)
}

// ProvideChatConfig 提供对话编排配置
func ProvideChatConfig(cfg *config.Config) *config.ChatConfig {
	return &cfg.Chat
}

// ProvideWSGateway 提供 WebSocket 对话网关
func ProvideWSGateway(orchestrator *chat.Orchestrator, cfg *config.Config) *ws.Gateway {
	return ws.NewGateway(orchestrator, cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
}

// ProvideApp 组装路由器并注册全部路由
func ProvideApp(
	cfg *config.Config,
	healthHandler *handler.HealthHandler,
	memberships *postgres.MembershipRepository,
	projectHandler *handler.ProjectHandler,
	sampleHandler *handler.SampleHandler,
	chatHandler *handler.ChatHandler,
	knowledgeHandler *handler.KnowledgeHandler,
	limiter middleware.RateLimiter,
	wsGateway *ws.Gateway,
) *App {
	r := router.New(cfg, healthHandler)

	v1 := r.V1(limiter)
	router.RegisterV1Routes(v1, memberships, projectHandler, sampleHandler, chatHandler, knowledgeHandler)

	wsGateway.Register(r.Engine())

	return &App{Router: r}
}
