// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parithera-api/internal/domain/entity"
)

type ChatRepository struct {
	client *Client
}

func NewChatRepository(client *Client) *ChatRepository {
	return &ChatRepository{client: client}
}

func (r *ChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chat).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat: %w", err)
	}
	return nil
}

func (r *ChatRepository) GetByProject(ctx context.Context, projectID string) (*entity.Chat, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatRepository.GetByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chat entity.Chat
	if err := db.First(&chat, `"projectId" = ?`, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) GetByProjectForUpdate(ctx context.Context, projectID string) (*entity.Chat, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChatRepository.GetByProjectForUpdate")
	defer span.End()

	db := getDB(ctx, r.client.db).Clauses(clause.Locking{Strength: "UPDATE"})
	var chat entity.Chat
	if err := db.First(&chat, `"projectId" = ?`, projectID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chat for update: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) DeleteByProject(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatRepository.DeleteByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chat{}, `"projectId" = ?`, projectID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return nil
}

func (r *ChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(chat).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chat: %w", err)
	}
	return nil
}
