package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/persistence/redis"
	"parithera-api/internal/infrastructure/storage"
	"parithera-api/pkg/logger"
)

// brokenImageBase64 分析执行出错时替代图像产物的占位图
const brokenImageBase64 = "iVBORw0KGgoAAAANSUhEUgAAAJIAAAA2CAYAAAAs9sB2AAAACXBIWXMAAEzlAABM5QF1zvCVAAAAGXRFWHRTb2Z0d2FyZQB3d3cuaW5rc2NhcGUub3Jnm+48GgAACnNJREFUeJztnX1wVNUZh5/fzfIZtYgIVmsVK1rUarWt1qrA2CpaP7BaRvyiFJlkE8QqQp2qrcY6UkYyqCDZ5WtQWgumlA4d21J1LEjFijqKlhEEkVIrAUEBQSDJvv3j3CgCyd7dvbt3E/LMMAy7557zm/Dm3nPfryMzIyyqJO8o+AbQz+BUwUkGXwW6A12BDsBWYCfwPrBG8DawtBGWVpp9EpqYg4CZ0qF74HvAd4GTgROBo3E/6y8B9bif9WbBeoNVwIoULN4Ey+81S4WlRbkaUpXk9YQLBTcClwNHZDlVA7DY4PfAvAqzj3IS1kaZJB3ZEQYbXAucB5RkOdVHgqdT8ORGeOZes4ZcdGVtSLOl0p0wwmA07q4TJjsNZqSgeqTZupDnbpUkpNMEow1uADqGPP0GwaOfQs1tZh9nM0HGhuQ/vsoMfg30yGbRDKgHJpbC/TeZ7cjzWkXJZOnoDjDeNyDlebltBuMboHqU2e5MLszIkGqk0wUzgG9nqjBH1hvcVGG2qMDrRoekGqgUjAMOLfDqqw0qKsyeDXpBYENKSnGDiUDnbNXlSIPgF+VQTZhvCEXIDKl7PcwEBkUoIwVM8OCeMrP6dIPTGlKVFOsFSWB4SAJzZXIcbm2rxjRd6t0AC4E+UWsBMFjSEQbdbLalpXEtGtJEqUsXmANcGbbAHKmpg1vCfH0tBpLSGQZ/Bb6cwzTbgU3AR0DM4DDBMeS2QX8buDRu9l5zA5o1JP9ONI/iM6Im5hwBPxlstidqIWGQkC4E/ojz/2TCB8A8g+cEy+Jm7+87oFYq2QS9S5zP6SJzj8yM9l0GawUXHGh+aMGQktJMg59mslgEPFcPV48y2xa1kFxISEOAx8nsrvGiwfge8PRgs8ZM1psqdTW4zmAszpEZlBWN0G+k2eZ9vzigIdVIIwWTMxEXIcsbYfBIs1VRC8mUWqlkC9xtcC/gBbzsPcGt5WZ/Dmn9coMHgMODXGPwt41w2b7biv0MKSGdCSwFOuUqtIB8AoyKm82KWkhQpktfaYDfAv0zuGx2KVSE7VPztTwJXBDwkvviZlV7f/AFQ6qVSjbDMuDM8GQWlDnAz+JmG6MW0hL+o2wywcNJKeD2uNmj+dLk74mnAcMCDG9IwXcqzV5v+uALhpSURhnkTWyB2Cq4XzApiP+jkEyRvunBI0C/DC7bDQyLm83Jk6zPkZRwBl4ZYPTLdXBu0yPuM0OaIh3iwTpcpL4tsFJQtQFqcw1I5kpS6pOCO+V+2zMJsm724KoysyV5krYfVZLXC54CrgkwfGjcbDbsZUhJaYzBQ3nUGBXrBBMbYUah01SS0rkpGCO4iuCbaQAMVhlcVmm2Ok/ymsVPT3mVNE5Rg1U94JTBZo0ys6bn4zpcLkubxGCHYIFgbidYOMxsVz7WqZFO9uBaP83jlCynmW9wc5SpNFOl81OwmDSBYsGQcrO5MjNqpEsFfymQxmJgm8Ei4AUPlgheyXY/lZCOkUvkO1/Q3+DUHHTtMhhTYfZYDnOERkJ6ArgpzbBn4mYXy8xISE8C1xVAW7GyB+e5XW3uzween8mZgk8FMugmKMV5nk8Evub/HVYqzWuC4eVmb4Q0X848Jp1UAitoeV+XSsHxegpKtsCHBt0KJbCdL7Dd4Fc9YFKmHupCUCMtEFyRZlhlbAuc2W5EkZAC5gJjK5qJXxUDHjxhaQzJ4AcxMvNptBMOCwx+WWG2PGoh6egAC/e4TNUOzY0RDPAM+hZQ18FMvbk70Dlxs0GtwYgAhpttx7kCWqJ7jMyiv+1kzn+B6R5MLTP7IGoxWfImruSpWWKEXwHSjjOeeUBtHSxtAwl4aZ2iMQqfWN4WWY/zRy0xWByHf7exVOC0jtEYcEgBhLQ1VgAPClbugVWtPbEuADvTDYgVQkUbpC8wzmBNDNbUSO8YvAwsa6Nl513TDYjhksLaSsS/UAg4FjhWMKDpA6AxIb0FLBIs2ACLos48CAOD7ukqMz1c1UE74VACnAHcavBsL9iYlGYnpYuQ8l0lmzfkQkEt4uGi/u3kh8MNbjT4ewJWJqXRM6TWePc/Pd0AD9fqpJ3808egeg/8Jyn9pkYKlGwfNTOlQwmQeu3h3kDaKRCCUoM7PXg3Id09UeoStaaWqIeBtBAe8dnumUteaqfA+IHyB7rAcr84sli5IcCYF9rTSIoDE8xKwR3F1GCsRjpBsJI0biLB2KbEtt8B1xdGXtFShwsFvCNYa/CxOUfcVv/7TkBXQTeDXv6bTB/gBEKqATRYCwyuMEsXJC0ISSlpUJZunAd9ZWYkpUv85gUHDYLXDRYLXmiEJZVmG7KZx893Pws4Ty4lZ0COd/fduNq8ZA5z5IxfOvUK6atelsXNzt47+f89XNeKtsybBnNKYG6Z2Zp8LDBJ6hSDgXLJ/1eSZQhKMLU7VEaRNVkrddwM/yRAQzWDWyrMHtu7HGm0QXW+RUZAIzAvBRMqzZYVcmG/VnA4cDtwfBZTzO8M1+er4qU5aqRqud6g6djkwfFlZjs/M6TZUukO55zMtittsdEATIvBQyPM1kYppEqKHQXXGNwHfD3Dy/9RD4MKFRhOSOVAIshYwV3lZuNgn5LtVtaFpFkEz6fgtmLLQpwqdTCoNKgisz5IbwGXNNebKCyS0lBzPUKDBPPXl0LfpoYWB2oi8S/gW/mRmnc2CSrLzf4QtZCWSEg9gYfJrATsXQ8Gl5m9FrYev0z7PuAegnfOvTpuNr/pH/u1tfHbz71EdE1Hs+VZD4a2pnTWhDQMmETwDfku4J46eCSsrAK/Z+U04PtBrzGYW2E2ZO/P9qtHLzd7Q25z2FpICe6qg4GtyYgA4mazGt3dP2hRZGdgQi94NSldkUtGwcNStxqpqsE9NgMbEbC64QC+pWZb/yWkacCI7GQWjN1+/+3aqIXkwiTpsA6uf2Qm/6HgjGAm8FSQ/ZN/3MfZcmXYN5Bhv0rBx4J+ZWZv7vddc4bk75fmEW2v55bYmoIfVZo9H7WQMPB9N48DQ9IOPjBv+1maKwUbDLbL7XcONzjOg77mOrJl+1a+SzCw3OyAsdkW2yPPkjrvcl3Qis2Y/if4YTHVyYeBfzxHtcFtUWvZh0+AH8fNFjY3IG3Ddr9h5ZQgMZcCkbbnc2unRhorGE/+zx4JwsYUXJ7OmZvJERJDUzDF78gRFfM7wIh0XejbAlOkiz14AugVoYzFwPVB9l8ZHWqTkE4zmC44Jxd1WbDV4OcVZlMLvG6k+N1mZwIXFXjpTw0e7AHjgsb6sjpmqycMl+vNnO/flhQwKwZ3jTCry/NaRUtSujoFEwS987yUAX+KwR2ZhpWyPvjPP6fkZuAOsgtItsRuXDuV6gqzlSHP3SqplTp+CNcJxgCnhTx9U2B73N4tjzMhlKNIj4T+3udHkfbMcqqmo0jnpmDegY4paAeQNAXO9VyayjVkn/rTCCwTzGmEudnmY30mK9QSdden+VSD/nK9FE8CjsMdT1CKSyLfhnudfB9Yg/N7vNgVXjpYT4nMhSnSiR6cb3CWXDvC3rh2hF2AQ+QyPXcINhmskqsaelmwuMxsa4uTZ8D/AZFjA88kD6qFAAAAAElFTkSuQmCC"

// Service 会话存储服务。管理项目对话的获取、创建、写入与读取态解析。
type Service struct {
	chats   repository.ChatRepository
	results repository.ResultRepository
	tx      repository.Transactor
	store   *storage.Store
	cache   *redis.Cache
}

// NewService 创建会话服务。cache 允许为空，为空时跳过产物缓存。
func NewService(
	chats repository.ChatRepository,
	results repository.ResultRepository,
	tx repository.Transactor,
	store *storage.Store,
	cache *redis.Cache,
) *Service {
	return &Service{
		chats:   chats,
		results: results,
		tx:      tx,
		store:   store,
		cache:   cache,
	}
}

// GetOrCreate 获取项目对话，不存在时创建并写入欢迎消息。
// 并发创建依赖 projectId 唯一索引兜底：插入冲突后重读即可。
func (s *Service) GetOrCreate(ctx context.Context, projectID string) (*entity.Chat, error) {
	ctx, span := tracer.Start(ctx, "chat.GetOrCreate",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	chat, err := s.chats.GetByProject(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	chat = entity.NewChat(projectID)
	if err := s.chats.Create(ctx, chat); err != nil {
		existing, gerr := s.chats.GetByProject(ctx, projectID)
		if gerr == nil && existing != nil {
			return existing, nil
		}
		span.RecordError(err)
		return nil, err
	}
	return chat, nil
}

// PrependMessage 将消息头插到项目对话并整体回写，行锁内完成避免丢更新
func (s *Service) PrependMessage(ctx context.Context, projectID string, msg entity.Message) (*entity.Chat, error) {
	ctx, span := tracer.Start(ctx, "chat.PrependMessage",
		trace.WithAttributes(attribute.String("project_id", projectID)))
	defer span.End()

	var out *entity.Chat
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		chat, err := s.chats.GetByProjectForUpdate(txCtx, projectID)
		if err != nil {
			return err
		}
		if chat == nil {
			chat = entity.NewChat(projectID)
			if err := s.chats.Create(txCtx, chat); err != nil {
				return err
			}
		}
		chat.Prepend(msg)
		if err := s.chats.Update(txCtx, chat); err != nil {
			return err
		}
		out = chat
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// ResolveForRead 在读取路径上将消息里的分析引用解析为内联产物。
// image 字段存储的是分析 ID，解析后替换为 base64 图像；执行出错的
// 分析替换为占位图；产物文件缺失降级为空值，不中断整个历史的读取。
func (s *Service) ResolveForRead(ctx context.Context, orgID string, chat *entity.Chat) *entity.Chat {
	ctx, span := tracer.Start(ctx, "chat.ResolveForRead",
		trace.WithAttributes(attribute.String("organization_id", orgID)))
	defer span.End()

	for i := range chat.Messages {
		msg := &chat.Messages[i]
		if msg.Image == "" {
			continue
		}

		analysisID := msg.Image
		result, err := s.results.GetByAnalysisAndPlugin(ctx, analysisID, entity.PluginKindPython)
		if err != nil {
			logger.Warn(ctx, "failed to look up analysis result", "analysis_id", analysisID, "error", err)
			continue
		}
		if result == nil {
			continue
		}

		if result.HasErrors() {
			msg.Image = brokenImageBase64
			continue
		}

		msg.JSON = s.resolveJSON(ctx, orgID, chat.ProjectID, analysisID)
		msg.Image = s.resolveImage(ctx, orgID, chat.ProjectID, analysisID)
	}
	return chat
}

func (s *Service) resolveJSON(ctx context.Context, orgID, projectID, analysisID string) map[string]interface{} {
	raw := s.cachedArtifact(ctx, orgID, projectID, analysisID, "json", func() ([]byte, error) {
		return s.store.ReadArtifactJSON(ctx, orgID, projectID, analysisID)
	})

	payload := map[string]interface{}{}
	if len(raw) == 0 {
		return payload
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn(ctx, "artifact json is not parseable", "analysis_id", analysisID, "error", err)
		return map[string]interface{}{}
	}
	return payload
}

func (s *Service) resolveImage(ctx context.Context, orgID, projectID, analysisID string) string {
	raw := s.cachedArtifact(ctx, orgID, projectID, analysisID, "png", func() ([]byte, error) {
		return s.store.ReadArtifactImage(ctx, orgID, projectID, analysisID)
	})
	if len(raw) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// cachedArtifact 经由 redis 读取产物，缓存不可用时直接读文件
func (s *Service) cachedArtifact(ctx context.Context, orgID, projectID, analysisID, kind string, load func() ([]byte, error)) []byte {
	if s.cache == nil {
		data, err := load()
		if err != nil {
			logger.Warn(ctx, "failed to read artifact", "analysis_id", analysisID, "kind", kind, "error", err)
			return nil
		}
		return data
	}

	key := redis.BuildArtifactKey(orgID, projectID, analysisID, kind)
	data, err := s.cache.GetOrLoad(ctx, key, 30*time.Minute, func() (interface{}, error) {
		return load()
	})
	if err != nil {
		logger.Warn(ctx, "failed to read artifact", "analysis_id", analysisID, "kind", kind, "error", err)
		return nil
	}
	return data
}
