package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/infrastructure/storage"
)

// racingChats 在每次插入前让一个抢先者先把对话写进存储，随后返回唯一索引冲突
type racingChats struct {
	*fakeChats
}

func (r *racingChats) Create(ctx context.Context, chat *entity.Chat) error {
	if existing, _ := r.fakeChats.GetByProject(ctx, chat.ProjectID); existing == nil {
		racer := entity.NewChat(chat.ProjectID)
		if err := r.fakeChats.Create(ctx, racer); err != nil {
			return err
		}
	}
	return fmt.Errorf(`duplicate key value violates unique constraint "idx_chat_project"`)
}

func newTestService(t *testing.T, chats *fakeChats, results *fakeResults) (*Service, *storage.Store) {
	t.Helper()

	store := storage.NewStore(t.TempDir())
	return NewService(chats, results, fakeTx{}, store, nil), store
}

func TestServiceGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("首次访问创建对话并写入欢迎消息", func(t *testing.T) {
		chats := newFakeChats()
		svc, _ := newTestService(t, chats, &fakeResults{})

		chat, err := svc.GetOrCreate(ctx, "proj-1")

		require.NoError(t, err)
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, "Hi, how can I help you today?", chat.Messages[0].Text)
		assert.Equal(t, "", chat.Messages[0].Request)
	})

	t.Run("再次访问返回已有对话", func(t *testing.T) {
		chats := newFakeChats()
		svc, _ := newTestService(t, chats, &fakeResults{})

		first, err := svc.GetOrCreate(ctx, "proj-1")
		require.NoError(t, err)
		second, err := svc.GetOrCreate(ctx, "proj-1")
		require.NoError(t, err)

		assert.Equal(t, first.ProjectID, second.ProjectID)
		assert.Len(t, second.Messages, 1)
	})

	t.Run("插入冲突后重读返回已有对话", func(t *testing.T) {
		chats := newFakeChats()
		svc := NewService(&racingChats{fakeChats: chats}, &fakeResults{}, fakeTx{}, storage.NewStore(t.TempDir()), nil)

		chat, err := svc.GetOrCreate(ctx, "proj-1")

		require.NoError(t, err)
		require.NotNil(t, chat)
		// 唯一索引兜底后拿到的是抢先者的对话，欢迎消息只有一条
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, "Hi, how can I help you today?", chat.Messages[0].Text)

		stored, gerr := chats.GetByProject(ctx, "proj-1")
		require.NoError(t, gerr)
		assert.Len(t, stored.Messages, 1)
	})

	t.Run("并发创建只产生一个对话", func(t *testing.T) {
		chats := newFakeChats()
		svc, _ := newTestService(t, chats, &fakeResults{})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				chat, err := svc.GetOrCreate(ctx, "proj-1")
				assert.NoError(t, err)
				assert.NotNil(t, chat)
			}()
		}
		wg.Wait()

		chat, err := chats.GetByProject(ctx, "proj-1")
		require.NoError(t, err)
		require.NotNil(t, chat)
		require.Len(t, chat.Messages, 1)
		assert.Equal(t, "Hi, how can I help you today?", chat.Messages[0].Text)
	})

	t.Run("创建失败且重读为空时传播错误", func(t *testing.T) {
		chats := newFakeChats()
		chats.createErr = assert.AnError
		svc, _ := newTestService(t, chats, &fakeResults{})

		chat, err := svc.GetOrCreate(ctx, "proj-1")

		require.Error(t, err)
		assert.Nil(t, chat)
	})
}

func TestServicePrependMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("新消息头插保持最新在前", func(t *testing.T) {
		chats := newFakeChats()
		svc, _ := newTestService(t, chats, &fakeResults{})

		_, err := svc.GetOrCreate(ctx, "proj-1")
		require.NoError(t, err)

		chat, err := svc.PrependMessage(ctx, "proj-1", entity.Message{
			Request:   "first question",
			Followup:  []string{},
			Timestamp: time.Now(),
		})
		require.NoError(t, err)

		chat, err = svc.PrependMessage(ctx, "proj-1", entity.Message{
			Request:   "second question",
			Followup:  []string{},
			Timestamp: time.Now(),
		})
		require.NoError(t, err)

		require.Len(t, chat.Messages, 3)
		assert.Equal(t, "second question", chat.Messages[0].Request)
		assert.Equal(t, "first question", chat.Messages[1].Request)
	})

	t.Run("对话缺失时先创建再头插", func(t *testing.T) {
		chats := newFakeChats()
		svc, _ := newTestService(t, chats, &fakeResults{})

		chat, err := svc.PrependMessage(ctx, "proj-9", entity.Message{
			Request:   "hello",
			Followup:  []string{},
			Timestamp: time.Now(),
		})

		require.NoError(t, err)
		require.Len(t, chat.Messages, 2)
		assert.Equal(t, "hello", chat.Messages[0].Request)
	})
}

func TestServiceResolveForRead(t *testing.T) {
	ctx := context.Background()

	t.Run("分析引用解析为内联产物", func(t *testing.T) {
		results := &fakeResults{result: pythonResult()}
		svc, store := newTestService(t, newFakeChats(), results)
		writeArtifacts(t, store, "org-1", "proj-1", "analysis-1", `{"plot":{"x":[0.1]}}`, []byte("raw-png"))

		chat := &entity.Chat{
			ProjectID: "proj-1",
			Messages:  []entity.Message{{Request: "run umap", Image: "analysis-1"}},
		}
		resolved := svc.ResolveForRead(ctx, "org-1", chat)

		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw-png")), resolved.Messages[0].Image)
		payload, ok := resolved.Messages[0].JSON.(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, payload, "plot")
	})

	t.Run("执行出错的分析替换为占位图", func(t *testing.T) {
		results := &fakeResults{result: pythonResult("OOM")}
		svc, _ := newTestService(t, newFakeChats(), results)

		chat := &entity.Chat{
			ProjectID: "proj-1",
			Messages:  []entity.Message{{Image: "analysis-1"}},
		}
		resolved := svc.ResolveForRead(ctx, "org-1", chat)

		assert.Equal(t, brokenImageBase64, resolved.Messages[0].Image)
	})

	t.Run("产物缺失降级为空值", func(t *testing.T) {
		results := &fakeResults{result: pythonResult()}
		svc, _ := newTestService(t, newFakeChats(), results)

		chat := &entity.Chat{
			ProjectID: "proj-1",
			Messages:  []entity.Message{{Image: "analysis-1"}},
		}
		resolved := svc.ResolveForRead(ctx, "org-1", chat)

		assert.Equal(t, "", resolved.Messages[0].Image)
		payload, ok := resolved.Messages[0].JSON.(map[string]interface{})
		require.True(t, ok)
		assert.Empty(t, payload)
	})

	t.Run("无引用的消息保持原样", func(t *testing.T) {
		svc, _ := newTestService(t, newFakeChats(), &fakeResults{})

		chat := &entity.Chat{
			ProjectID: "proj-1",
			Messages:  []entity.Message{{Text: "plain answer", Image: ""}},
		}
		resolved := svc.ResolveForRead(ctx, "org-1", chat)

		assert.Equal(t, "plain answer", resolved.Messages[0].Text)
		assert.Equal(t, "", resolved.Messages[0].Image)
	})
}
