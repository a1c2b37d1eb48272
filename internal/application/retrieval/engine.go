// Package retrieval 提供知识库向量检索与索引能力。
// Milvus 或 Embedder 未配置时整体降级为空结果，不阻塞上层回答流程。
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"parithera-api/internal/infrastructure/persistence/milvus"
	"parithera-api/pkg/metrics"
)

const (
	defaultEmbeddingBatch = 32
	chunkMaxRunes         = 1200
	chunkOverlapRunes     = 120
)

type Engine struct {
	embedder embedding.Embedder
	vector   *milvus.Repository

	embeddingBatchSize int
}

func NewEngine(embedder embedding.Embedder, vectorRepo *milvus.Repository, embeddingBatchSize int) *Engine {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Engine{
		embedder:           embedder,
		vector:             vectorRepo,
		embeddingBatchSize: bs,
	}
}

func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

func (e *Engine) ensureReady(ctx context.Context) error {
	if e == nil || e.vector == nil {
		return ErrVectorDisabled
	}
	return e.vector.EnsureKnowledgeCollection(ctx)
}

// Search 检索与查询语义最接近的知识库片段。
// 检索链路任何一步失败都只记录 DisabledReason，返回空片段。
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	if in.TopK <= 0 {
		in.TopK = 5
	}
	if in.TopK > 50 {
		in.TopK = 50
	}
	in.Query = strings.TrimSpace(in.Query)
	in.OrganizationID = strings.TrimSpace(in.OrganizationID)
	if in.OrganizationID == "" {
		return nil, fmt.Errorf("organization_id is required")
	}
	if in.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	out := &SearchOutput{}

	if !e.Enabled() {
		out.DisabledReason = ErrVectorDisabled.Error()
		return out, nil
	}

	if err := e.ensureReady(ctx); err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	emb, err := e.embedQuery(ctx, in.Query)
	if err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	start := time.Now()
	results, err := e.vector.SearchChunks(ctx, &milvus.SearchParams{
		OrganizationID: in.OrganizationID,
		QueryVector:    emb,
		TopK:           in.TopK,
		Topics:         in.Topics,
	})
	metrics.MilvusSearchDuration.WithLabelValues(milvus.CollectionKnowledgeChunks).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(milvus.CollectionKnowledgeChunks, "error").Inc()
		out.DisabledReason = err.Error()
		return out, nil
	}
	metrics.MilvusSearchTotal.WithLabelValues(milvus.CollectionKnowledgeChunks, "ok").Inc()

	out.Chunks = make([]Chunk, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Chunks = append(out.Chunks, Chunk{
			ID:     strings.TrimSpace(r.ID),
			Text:   strings.TrimSpace(r.TextContent),
			Score:  1 - float64(r.Score), // COSINE: distance=1-cos，转为相似度
			Topic:  r.Topic,
			Source: r.Source,
		})
	}
	return out, nil
}

// Index 将文档切片、向量化并写入知识库。
func (e *Engine) Index(ctx context.Context, in IndexInput) (int, error) {
	if !e.Enabled() {
		return 0, ErrVectorDisabled
	}
	in.OrganizationID = strings.TrimSpace(in.OrganizationID)
	in.Source = strings.TrimSpace(in.Source)
	if in.OrganizationID == "" || in.Source == "" {
		return 0, fmt.Errorf("organization_id and source are required")
	}

	if err := e.ensureReady(ctx); err != nil {
		return 0, err
	}

	pieces := splitByRunes(in.Text, chunkMaxRunes, chunkOverlapRunes)
	if len(pieces) == 0 {
		return 0, nil
	}

	// 重新索引同一来源前先清理旧片段
	if err := e.vector.DeleteChunksBySource(ctx, in.OrganizationID, in.Source); err != nil {
		return 0, err
	}

	var chunks []*milvus.KnowledgeChunk
	for start := 0; start < len(pieces); start += e.embeddingBatchSize {
		end := start + e.embeddingBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}

		vectors, err := e.embedder.EmbedStrings(ctx, pieces[start:end])
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != end-start {
			return 0, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), end-start)
		}

		for i, vec := range vectors {
			chunks = append(chunks, &milvus.KnowledgeChunk{
				ID:             uuid.NewString(),
				Vector:         toFloat32(vec),
				OrganizationID: in.OrganizationID,
				Topic:          in.Topic,
				Source:         in.Source,
				TextContent:    pieces[start+i],
			})
		}
	}

	if err := e.vector.InsertChunks(ctx, in.OrganizationID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return toFloat32(vectors[0]), nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
