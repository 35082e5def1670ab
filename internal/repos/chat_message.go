package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
)

type ChatMessageRepo interface {
	// Append stores msg with the next sequential index_order for its
	// conversation. The assigned order is written back into msg.
	Append(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Append(ctx context.Context, tx *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var next int
	if err := transaction.WithContext(ctx).
		Model(&types.ChatMessage{}).
		Where("conversation_id = ?", msg.ConversationID).
		Select("COALESCE(MAX(index_order) + 1, 0)").
		Scan(&next).Error; err != nil {
		return nil, err
	}
	msg.IndexOrder = next
	if err := transaction.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *chatMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*types.ChatMessage, error) {
	var msgs []*types.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("index_order ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
